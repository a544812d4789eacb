// Package config provides configuration management for vidnav.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// Default values
	DefaultPort             = 8000
	DefaultBindAddr         = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultDataDir          = ".vidnav"
	DefaultLLMModel         = "gpt-4"
	DefaultLLMFallbackModel = "gpt-3.5-turbo"
	DefaultLLMMaxAttempts   = 2
	DefaultLLMBackoff       = time.Second
	DefaultLLMMaxBackoff    = 30 * time.Second
	DefaultBackoffStrategy  = BackoffFixed
	DefaultASRBackend       = "openai"
	DefaultWhisperModel     = "whisper-1"
	DefaultFFmpegBin        = "ffmpeg"
	DefaultFFprobeBin       = "ffprobe"
	DefaultSceneStrategy    = "content"
	DefaultMinSceneLength   = 1.0
	DefaultMaxUploadMB      = 500
	DefaultCacheTTL         = 24 * time.Hour
	DefaultJobPollInterval  = 2 * time.Second
	DefaultJobRetention     = 7 * 24 * time.Hour

	// Environment variable names
	EnvPort             = "VIDNAV_PORT"
	EnvBindAddr         = "VIDNAV_BIND_ADDR"
	EnvLogLevel         = "VIDNAV_LOG_LEVEL"
	EnvDataDir          = "VIDNAV_DATA_DIR"
	EnvOpenAIAPIKey     = "VIDNAV_OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "VIDNAV_OPENAI_BASE_URL"
	EnvLLMModel         = "VIDNAV_LLM_MODEL"
	EnvLLMFallbackModel = "VIDNAV_LLM_FALLBACK_MODEL"
	EnvLLMMaxAttempts   = "VIDNAV_LLM_MAX_ATTEMPTS"
	EnvLLMBackoff       = "VIDNAV_LLM_BACKOFF"
	EnvLLMMaxBackoff    = "VIDNAV_LLM_MAX_BACKOFF"
	EnvBackoffStrategy  = "VIDNAV_LLM_BACKOFF_STRATEGY"
	EnvASRBackend       = "VIDNAV_ASR_BACKEND"
	EnvWhisperModel     = "VIDNAV_WHISPER_MODEL"
	EnvWhisperCPPBin    = "VIDNAV_WHISPERCPP_BIN"
	EnvWhisperCPPModel  = "VIDNAV_WHISPERCPP_MODEL"
	EnvFFmpegBin        = "VIDNAV_FFMPEG_BIN"
	EnvFFprobeBin       = "VIDNAV_FFPROBE_BIN"
	EnvSceneStrategy    = "VIDNAV_SCENE_STRATEGY"
	EnvSceneThreshold   = "VIDNAV_SCENE_THRESHOLD"
	EnvMinSceneLength   = "VIDNAV_MIN_SCENE_LENGTH"
	EnvMaxUploadMB      = "VIDNAV_MAX_UPLOAD_MB"
	EnvRedisURL         = "VIDNAV_REDIS_URL"
	EnvCacheTTL         = "VIDNAV_CACHE_TTL"
	EnvJobPollInterval  = "VIDNAV_JOB_POLL_INTERVAL"
	EnvJobRetention     = "VIDNAV_JOB_RETENTION"
	EnvCORSOrigins      = "VIDNAV_CORS_ORIGINS"

	// Retry backoff strategies for text generation calls
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"

	// EnvPlainOpenAIAPIKey is honoured when the prefixed variable is unset.
	EnvPlainOpenAIAPIKey = "OPENAI_API_KEY"

	// Database filename
	DBFilename = "vidnav.db"

	// Media timeouts
	DefaultTimeoutProbe  = 30   // seconds
	DefaultTimeoutAudio  = 600  // 10 minutes
	DefaultTimeoutDoctor = 10   // seconds
	DefaultTimeoutJob    = 3600 // 1 hour
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	BindAddr() string
	Addr() string
	LogLevel() string
	DataDir() string
	DBPath() string
	UploadDir() string

	OpenAIAPIKey() string
	OpenAIBaseURL() string
	LLMModel() string
	LLMFallbackModel() string
	LLMMaxAttempts() int
	LLMBackoff() time.Duration
	LLMMaxBackoff() time.Duration
	LLMBackoffStrategy() string

	ASRBackend() string
	WhisperModel() string
	WhisperCPPBin() string
	WhisperCPPModel() string

	FFmpegBin() string
	FFprobeBin() string
	TimeoutProbe() time.Duration
	TimeoutAudio() time.Duration
	TimeoutDoctor() time.Duration
	TimeoutJob() time.Duration

	SceneStrategy() string
	SceneThreshold() float64
	MinSceneLength() float64

	MaxUploadBytes() int64
	RedisURL() string
	CacheTTL() time.Duration
	JobPollInterval() time.Duration
	JobRetention() time.Duration
	CORSOrigins() []string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	bindAddr string
	logLevel string
	dataDir  string

	openAIAPIKey     string
	openAIBaseURL    string
	llmModel         string
	llmFallbackModel string
	llmMaxAttempts   int
	llmBackoff       time.Duration
	llmMaxBackoff    time.Duration
	backoffStrategy  string

	asrBackend      string
	whisperModel    string
	whisperCPPBin   string
	whisperCPPModel string

	ffmpegBin  string
	ffprobeBin string

	sceneStrategy  string
	sceneThreshold float64
	minSceneLength float64

	maxUploadMB     int
	redisURL        string
	cacheTTL        time.Duration
	jobPollInterval time.Duration
	jobRetention    time.Duration
	corsOrigins     []string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:             DefaultPort,
		bindAddr:         DefaultBindAddr,
		logLevel:         DefaultLogLevel,
		dataDir:          defaultDataDir(),
		llmModel:         DefaultLLMModel,
		llmFallbackModel: DefaultLLMFallbackModel,
		llmMaxAttempts:   DefaultLLMMaxAttempts,
		llmBackoff:       DefaultLLMBackoff,
		llmMaxBackoff:    DefaultLLMMaxBackoff,
		backoffStrategy:  DefaultBackoffStrategy,
		asrBackend:       DefaultASRBackend,
		whisperModel:     DefaultWhisperModel,
		ffmpegBin:        DefaultFFmpegBin,
		ffprobeBin:       DefaultFFprobeBin,
		sceneStrategy:    DefaultSceneStrategy,
		minSceneLength:   DefaultMinSceneLength,
		maxUploadMB:      DefaultMaxUploadMB,
		cacheTTL:         DefaultCacheTTL,
		jobPollInterval:  DefaultJobPollInterval,
		jobRetention:     DefaultJobRetention,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	stringVars := []struct {
		env string
		dst *string
	}{
		{EnvBindAddr, &cfg.bindAddr},
		{EnvLogLevel, &cfg.logLevel},
		{EnvDataDir, &cfg.dataDir},
		{EnvOpenAIBaseURL, &cfg.openAIBaseURL},
		{EnvLLMModel, &cfg.llmModel},
		{EnvLLMFallbackModel, &cfg.llmFallbackModel},
		{EnvASRBackend, &cfg.asrBackend},
		{EnvWhisperModel, &cfg.whisperModel},
		{EnvWhisperCPPBin, &cfg.whisperCPPBin},
		{EnvWhisperCPPModel, &cfg.whisperCPPModel},
		{EnvFFmpegBin, &cfg.ffmpegBin},
		{EnvFFprobeBin, &cfg.ffprobeBin},
		{EnvSceneStrategy, &cfg.sceneStrategy},
		{EnvRedisURL, &cfg.redisURL},
		{EnvBackoffStrategy, &cfg.backoffStrategy},
	}
	for _, v := range stringVars {
		if s := strings.TrimSpace(os.Getenv(v.env)); s != "" {
			*v.dst = s
		}
	}

	cfg.openAIAPIKey = strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey))
	if cfg.openAIAPIKey == "" {
		cfg.openAIAPIKey = strings.TrimSpace(os.Getenv(EnvPlainOpenAIAPIKey))
	}

	for _, o := range strings.Split(os.Getenv(EnvCORSOrigins), ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			cfg.corsOrigins = append(cfg.corsOrigins, o)
		}
	}

	cfg.backoffStrategy = strings.ToLower(cfg.backoffStrategy)
	if cfg.backoffStrategy != BackoffFixed && cfg.backoffStrategy != BackoffExponential {
		return nil, fmt.Errorf("invalid %s: must be %q or %q", EnvBackoffStrategy, BackoffFixed, BackoffExponential)
	}

	var err error
	if cfg.llmMaxAttempts, err = positiveInt(EnvLLMMaxAttempts, cfg.llmMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.maxUploadMB, err = positiveInt(EnvMaxUploadMB, cfg.maxUploadMB); err != nil {
		return nil, err
	}
	if cfg.sceneThreshold, err = nonNegativeFloat(EnvSceneThreshold, cfg.sceneThreshold); err != nil {
		return nil, err
	}
	if cfg.minSceneLength, err = nonNegativeFloat(EnvMinSceneLength, cfg.minSceneLength); err != nil {
		return nil, err
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{EnvLLMBackoff, &cfg.llmBackoff},
		{EnvLLMMaxBackoff, &cfg.llmMaxBackoff},
		{EnvCacheTTL, &cfg.cacheTTL},
		{EnvJobPollInterval, &cfg.jobPollInterval},
		{EnvJobRetention, &cfg.jobRetention},
	}
	for _, d := range durations {
		if *d.dst, err = duration(d.env, *d.dst); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func positiveInt(env string, def int) (int, error) {
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s: must be at least 1", env)
	}
	return n, nil
}

func nonNegativeFloat(env string, def float64) (float64, error) {
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", env)
	}
	return f, nil
}

func duration(env string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", env)
	}
	return d, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

func (c *EnvConfig) BindAddr() string {
	return c.bindAddr
}

// Addr returns the host:port the HTTP server listens on
func (c *EnvConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.bindAddr, c.port)
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// UploadDir holds queued job uploads and transient audio files
func (c *EnvConfig) UploadDir() string {
	return filepath.Join(c.dataDir, "uploads")
}

func (c *EnvConfig) OpenAIAPIKey() string {
	return c.openAIAPIKey
}

func (c *EnvConfig) OpenAIBaseURL() string {
	return c.openAIBaseURL
}

func (c *EnvConfig) LLMModel() string {
	return c.llmModel
}

func (c *EnvConfig) LLMFallbackModel() string {
	return c.llmFallbackModel
}

func (c *EnvConfig) LLMMaxAttempts() int {
	return c.llmMaxAttempts
}

func (c *EnvConfig) LLMBackoff() time.Duration {
	return c.llmBackoff
}

// LLMMaxBackoff caps the exponential backoff delay.
func (c *EnvConfig) LLMMaxBackoff() time.Duration {
	return c.llmMaxBackoff
}

func (c *EnvConfig) LLMBackoffStrategy() string {
	return c.backoffStrategy
}

func (c *EnvConfig) ASRBackend() string {
	return c.asrBackend
}

func (c *EnvConfig) WhisperModel() string {
	return c.whisperModel
}

func (c *EnvConfig) WhisperCPPBin() string {
	return c.whisperCPPBin
}

func (c *EnvConfig) WhisperCPPModel() string {
	return c.whisperCPPModel
}

func (c *EnvConfig) FFmpegBin() string {
	return c.ffmpegBin
}

func (c *EnvConfig) FFprobeBin() string {
	return c.ffprobeBin
}

func (c *EnvConfig) TimeoutProbe() time.Duration {
	return time.Duration(DefaultTimeoutProbe) * time.Second
}

func (c *EnvConfig) TimeoutAudio() time.Duration {
	return time.Duration(DefaultTimeoutAudio) * time.Second
}

func (c *EnvConfig) TimeoutDoctor() time.Duration {
	return time.Duration(DefaultTimeoutDoctor) * time.Second
}

func (c *EnvConfig) TimeoutJob() time.Duration {
	return time.Duration(DefaultTimeoutJob) * time.Second
}

func (c *EnvConfig) SceneStrategy() string {
	return c.sceneStrategy
}

// SceneThreshold returns the configured cut threshold; 0 means the
// strategy default.
func (c *EnvConfig) SceneThreshold() float64 {
	return c.sceneThreshold
}

func (c *EnvConfig) MinSceneLength() float64 {
	return c.minSceneLength
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *EnvConfig) MaxUploadBytes() int64 {
	return int64(c.maxUploadMB) << 20
}

// RedisURL returns the completion cache address; empty selects the
// in-memory cache.
func (c *EnvConfig) RedisURL() string {
	return c.redisURL
}

func (c *EnvConfig) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c *EnvConfig) JobPollInterval() time.Duration {
	return c.jobPollInterval
}

// JobRetention is how long finished jobs are kept
func (c *EnvConfig) JobRetention() time.Duration {
	return c.jobRetention
}

// CORSOrigins lists browser origins allowed in addition to loopback ones.
func (c *EnvConfig) CORSOrigins() []string {
	return c.corsOrigins
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/vidnav/vidnav/internal/cache"
	"github.com/vidnav/vidnav/internal/config"
	"github.com/vidnav/vidnav/internal/llm"
	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/media"
	"github.com/vidnav/vidnav/internal/pipeline"
	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/transcribe"
)

// app holds the processing components shared by the server and the
// one-shot commands.
type app struct {
	cfg         config.Config
	logger      *slog.Logger
	toolkit     *media.Toolkit
	llm         *llm.Client
	transcriber transcribe.Transcriber
	pipeline    *pipeline.Pipeline
	processor   *pipeline.Processor
	closers     []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	mcfg := media.DefaultConfig(logger)
	mcfg.FFmpegPath = cfg.FFmpegBin()
	mcfg.FFprobePath = cfg.FFprobeBin()
	mcfg.WhisperPath = cfg.WhisperCPPBin()
	mcfg.ProbeTimeout = cfg.TimeoutProbe()
	mcfg.AudioTimeout = cfg.TimeoutAudio()
	mcfg.DoctorTimeout = cfg.TimeoutDoctor()
	mcfg.DebugPaths = cfg.LogLevel() == "debug"
	a.toolkit = media.New(mcfg)

	completionCache, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}

	if key := cfg.OpenAIAPIKey(); key != "" {
		client, err := llm.New(llm.Config{
			APIKey:        key,
			BaseURL:       cfg.OpenAIBaseURL(),
			Model:         cfg.LLMModel(),
			FallbackModel: cfg.LLMFallbackModel(),
			Retry:         retryPolicy(cfg),
			Cache:         completionCache,
			CacheTTL:      cfg.CacheTTL(),
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		a.llm = client
		logger.Info("text generation enabled", "model", cfg.LLMModel(), "api_key", logging.SanitizeToken(key))
	} else {
		logger.Warn("no OpenAI API key configured, labels fall back to section names and text generation is disabled")
	}

	if tr, err := newTranscriber(cfg, logger); err != nil {
		logger.Warn("transcription unavailable", "backend", cfg.ASRBackend(), "error", err)
	} else {
		a.transcriber = tr
	}

	deps := pipeline.Deps{
		Detector: scenes.NewSegmenter(a.toolkit.Decoder(), logger),
		Logger:   logger,
	}
	if a.llm != nil {
		deps.Generator = a.llm
	}
	a.pipeline = pipeline.New(deps)
	a.processor = pipeline.NewProcessor(a.toolkit, a.transcriber, a.pipeline, filepath.Join(cfg.DataDir(), "tmp"), logger)
	return a, nil
}

func retryPolicy(cfg config.Config) llm.RetryPolicy {
	backoff := llm.FixedBackoff(cfg.LLMBackoff())
	if cfg.LLMBackoffStrategy() == config.BackoffExponential {
		backoff = llm.ExponentialBackoff(cfg.LLMBackoff(), cfg.LLMMaxBackoff())
	}
	return llm.RetryPolicy{MaxAttempts: cfg.LLMMaxAttempts(), Backoff: backoff}
}

// openCache returns Redis when configured, otherwise an in-memory cache.
func (a *app) openCache(ctx context.Context) (cache.Cache, error) {
	url := a.cfg.RedisURL()
	if url == "" {
		return cache.NewMemory(0), nil
	}
	r, err := cache.NewRedis(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("completion cache: %w", err)
	}
	a.closers = append(a.closers, r.Close)
	a.logger.Info("using redis completion cache")
	return r, nil
}

func newTranscriber(cfg config.Config, logger *slog.Logger) (transcribe.Transcriber, error) {
	backend, err := transcribe.ParseBackend(cfg.ASRBackend())
	if err != nil {
		return nil, err
	}
	if backend == transcribe.BackendWhisperCPP {
		w, err := transcribe.NewWhisperCPP(cfg.WhisperCPPBin(), cfg.WhisperCPPModel(), logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	o, err := transcribe.NewOpenAI(transcribe.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey(),
		BaseURL: cfg.OpenAIBaseURL(),
		Model:   cfg.WhisperModel(),
		Timeout: cfg.TimeoutAudio(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// sceneDefaults are the configured detection options.
func (a *app) sceneDefaults() (scenes.Options, error) {
	strategy, err := scenes.ParseStrategy(a.cfg.SceneStrategy())
	if err != nil {
		return scenes.Options{}, fmt.Errorf("invalid %s: %w", config.EnvSceneStrategy, err)
	}
	return scenes.Options{
		Strategy:       strategy,
		Threshold:      a.cfg.SceneThreshold(),
		MinSceneLength: a.cfg.MinSceneLength(),
	}.Normalize()
}

func (a *app) transcriberName() string {
	if a.transcriber == nil {
		return ""
	}
	return a.transcriber.Name()
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

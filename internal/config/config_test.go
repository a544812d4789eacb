package config

import (
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvPlainOpenAIAPIKey, "")
	t.Setenv(EnvDataDir, "/tmp/vidnav-test")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.Addr() != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.DBPath() != "/tmp/vidnav-test/vidnav.db" {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.LLMModel() != "gpt-4" || cfg.LLMFallbackModel() != "gpt-3.5-turbo" {
		t.Errorf("models = %q, %q", cfg.LLMModel(), cfg.LLMFallbackModel())
	}
	if cfg.LLMMaxAttempts() != 2 || cfg.LLMBackoff() != time.Second {
		t.Errorf("retry = %d, %v", cfg.LLMMaxAttempts(), cfg.LLMBackoff())
	}
	if cfg.LLMBackoffStrategy() != BackoffFixed || cfg.LLMMaxBackoff() != 30*time.Second {
		t.Errorf("backoff = %q, max %v", cfg.LLMBackoffStrategy(), cfg.LLMMaxBackoff())
	}
	if cfg.MaxUploadBytes() != 500<<20 {
		t.Errorf("MaxUploadBytes() = %d", cfg.MaxUploadBytes())
	}
	if cfg.MinSceneLength() != 1.0 || cfg.SceneThreshold() != 0 || cfg.SceneStrategy() != "content" {
		t.Errorf("scene defaults = %v, %v, %q", cfg.MinSceneLength(), cfg.SceneThreshold(), cfg.SceneStrategy())
	}
	if cfg.RedisURL() != "" {
		t.Errorf("RedisURL() = %q, want empty", cfg.RedisURL())
	}
	if cfg.OpenAIAPIKey() != "" {
		t.Errorf("OpenAIAPIKey() = %q, want empty", cfg.OpenAIAPIKey())
	}
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvBindAddr, "0.0.0.0")
	t.Setenv(EnvLLMMaxAttempts, "4")
	t.Setenv(EnvLLMBackoff, "250ms")
	t.Setenv(EnvLLMMaxBackoff, "4s")
	t.Setenv(EnvBackoffStrategy, "Exponential")
	t.Setenv(EnvSceneThreshold, "12.5")
	t.Setenv(EnvMaxUploadMB, "10")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvASRBackend, "whispercpp")
	t.Setenv(EnvCORSOrigins, " https://studio.example.com/ , ,http://editor.local:3000")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.LLMMaxAttempts() != 4 || cfg.LLMBackoff() != 250*time.Millisecond {
		t.Errorf("retry = %d, %v", cfg.LLMMaxAttempts(), cfg.LLMBackoff())
	}
	if cfg.LLMBackoffStrategy() != BackoffExponential || cfg.LLMMaxBackoff() != 4*time.Second {
		t.Errorf("backoff = %q, max %v", cfg.LLMBackoffStrategy(), cfg.LLMMaxBackoff())
	}
	if cfg.SceneThreshold() != 12.5 {
		t.Errorf("SceneThreshold() = %v", cfg.SceneThreshold())
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("MaxUploadBytes() = %d", cfg.MaxUploadBytes())
	}
	if cfg.RedisURL() != "redis://localhost:6379/0" || cfg.ASRBackend() != "whispercpp" {
		t.Errorf("RedisURL() = %q, ASRBackend() = %q", cfg.RedisURL(), cfg.ASRBackend())
	}
	origins := cfg.CORSOrigins()
	if len(origins) != 2 || origins[0] != "https://studio.example.com" || origins[1] != "http://editor.local:3000" {
		t.Errorf("CORSOrigins() = %q", origins)
	}
}

func TestNew_APIKeyFallback(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvPlainOpenAIAPIKey, "sk-plain")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.OpenAIAPIKey() != "sk-plain" {
		t.Fatalf("OpenAIAPIKey() = %q", cfg.OpenAIAPIKey())
	}

	t.Setenv(EnvOpenAIAPIKey, "sk-prefixed")
	cfg, err = New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.OpenAIAPIKey() != "sk-prefixed" {
		t.Fatalf("OpenAIAPIKey() = %q, want prefixed key to win", cfg.OpenAIAPIKey())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{EnvPort, "abc"},
		{EnvPort, "70000"},
		{EnvLLMMaxAttempts, "0"},
		{EnvLLMBackoff, "soon"},
		{EnvLLMMaxBackoff, "-1s"},
		{EnvBackoffStrategy, "jittered"},
		{EnvSceneThreshold, "-1"},
		{EnvMinSceneLength, "x"},
		{EnvMaxUploadMB, "-5"},
		{EnvJobPollInterval, "0s"},
	}

	for _, tc := range tests {
		t.Run(tc.env+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.env, tc.value)
			_, err := New()
			if err == nil {
				t.Fatalf("New() error = nil, want error for %s=%q", tc.env, tc.value)
			}
			if !strings.Contains(err.Error(), "invalid "+tc.env) {
				t.Fatalf("New() error = %v, want it to name %s", err, tc.env)
			}
		})
	}
}

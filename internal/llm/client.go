// Package llm wraps an OpenAI-compatible chat completion API as the text
// generation collaborator: scene labels, main-scene selection, whole
// transcript timestamps, summaries and descriptions.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/vidnav/vidnav/internal/cache"
	"github.com/vidnav/vidnav/internal/logging"
)

const (
	DefaultModel         = "gpt-4"
	DefaultFallbackModel = "gpt-3.5-turbo"
	DefaultCacheTTL      = 24 * time.Hour
)

// ChatCompleter is the subset of *openai.Client used here.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	FallbackModel string
	Retry         RetryPolicy
	Cache         cache.Cache
	CacheTTL      time.Duration
	Logger        *slog.Logger
}

type Client struct {
	chat   ChatCompleter
	cfg    Config
	logger *slog.Logger
}

// New builds a client talking to the OpenAI API, or to BaseURL when set.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return NewWithCompleter(openai.NewClientWithConfig(oc), cfg), nil
}

// NewWithCompleter builds a client around any ChatCompleter.
func NewWithCompleter(chat ChatCompleter, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Retry.MaxAttempts == 0 && cfg.Retry.Backoff == nil {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = isRetryable
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{chat: chat, cfg: cfg, logger: logging.WithComponent(logger, "llm")}
}

func (c *Client) Model() string {
	return c.cfg.Model
}

type completion struct {
	op          string
	prompt      string
	maxTokens   int
	temperature float32
	// validate, when set, must accept an answer before it is cached.
	validate func(string) error
}

func (req completion) cacheable(text string) bool {
	return req.validate == nil || req.validate(text) == nil
}

// complete runs one prompt through the cache, the retry policy and the
// model fallback. Exhausted retries yield *GenerationError.
func (c *Client) complete(ctx context.Context, req completion) (string, error) {
	key := c.cacheKey(req)
	if c.cfg.Cache != nil {
		if v, ok, err := c.cfg.Cache.Get(ctx, key); err != nil {
			c.logger.Warn("completion cache read failed", "op", req.op, "error", err)
		} else if ok && req.cacheable(v) {
			c.logger.Debug("completion cache hit", "op", req.op)
			return v, nil
		}
	}

	var text string
	start := time.Now()
	attempts, err := c.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		out, err := c.completeOnce(ctx, req)
		if err != nil {
			c.logger.Warn("completion attempt failed", "op", req.op, "error", redactSecrets(err.Error(), c.cfg.APIKey))
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		if redacted := redactSecrets(err.Error(), c.cfg.APIKey); redacted != err.Error() {
			err = errors.New(redacted)
		}
		return "", &GenerationError{Op: req.op, Attempts: attempts, Err: err}
	}

	c.logger.Info("completion succeeded", "op", req.op, "attempts", attempts, "duration_ms", time.Since(start).Milliseconds())

	if c.cfg.Cache != nil && req.cacheable(text) {
		if err := c.cfg.Cache.Set(ctx, key, text, c.cfg.CacheTTL); err != nil {
			c.logger.Warn("completion cache write failed", "op", req.op, "error", err)
		}
	}
	return text, nil
}

func (c *Client) completeOnce(ctx context.Context, req completion) (string, error) {
	out, err := c.chatWithModel(ctx, c.cfg.Model, req)
	if err == nil || !isModelUnavailable(err) {
		return out, err
	}
	fb := c.cfg.FallbackModel
	if fb == "" || fb == c.cfg.Model {
		return "", err
	}
	c.logger.Warn("model unavailable, using fallback model", "model", c.cfg.Model, "fallback", fb)
	return c.chatWithModel(ctx, fb, req)
}

func (c *Client) chatWithModel(ctx context.Context, model string, req completion) (string, error) {
	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.prompt},
		},
		MaxTokens:   req.maxTokens,
		Temperature: req.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s): no choices returned", model)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat completion (%s): empty content", model)
	}
	return content, nil
}

func (c *Client) cacheKey(req completion) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00%.2f\x00%s", c.cfg.Model, c.cfg.FallbackModel, req.op, req.maxTokens, req.temperature, req.prompt)
	return req.op + ":" + hex.EncodeToString(h.Sum(nil))
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isModelUnavailable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "model_not_found" {
			return true
		}
	}
	return statusCode(err) == http.StatusNotFound
}

// isRetryable treats rate limits, server errors and transport failures as
// transient. Other client errors and cancellation are final.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code := statusCode(err)
	switch {
	case code == 0:
		return true
	case code == http.StatusTooManyRequests, code >= 500:
		return true
	default:
		return false
	}
}

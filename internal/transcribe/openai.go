package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/transcript"
)

// AudioTranscriber is the subset of *openai.Client used here.
type AudioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string // default whisper-1
	Timeout time.Duration
	Logger  *slog.Logger
}

// OpenAI transcribes through the audio transcription endpoint, asking for
// verbose_json so segment timings come back.
type OpenAI struct {
	client  AudioTranscriber
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("transcribe: api key is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(oc), cfg), nil
}

func NewOpenAIWithClient(client AudioTranscriber, cfg OpenAIConfig) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpenAI{client: client, model: model, timeout: timeout, logger: logging.WithComponent(logger, "transcribe")}
}

func (o *OpenAI) Name() string { return BackendOpenAI }

func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("whisper api transcription: %w", err)
	}

	segs := make([]transcript.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segs = append(segs, transcript.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	var tr transcript.Transcript
	if len(segs) > 0 {
		tr = transcript.FromSegments(segs)
	}
	if tr.Empty() {
		tr = transcript.FromText(resp.Text)
	}

	o.logger.Info("transcription complete",
		"backend", BackendOpenAI,
		"segments", len(tr.Segments),
		"chars", len(tr.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tr, nil
}

var _ Transcriber = (*OpenAI)(nil)

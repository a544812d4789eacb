package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/transcript"
)

// WhisperCPP runs a local whisper.cpp binary with JSON output.
type WhisperCPP struct {
	bin     string
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewWhisperCPP(binPath, modelPath string, logger *slog.Logger) (*WhisperCPP, error) {
	if binPath == "" || modelPath == "" {
		return nil, errors.New("transcribe: whisper.cpp binary and model paths are required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WhisperCPP{
		bin:     binPath,
		model:   modelPath,
		timeout: 30 * time.Minute,
		logger:  logging.WithComponent(logger, "transcribe"),
	}, nil
}

func (w *WhisperCPP) Name() string { return BackendWhisperCPP }

func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	outDir, err := os.MkdirTemp("", "vidnav-whisper-*")
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("cannot create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	outPrefix := filepath.Join(outDir, "whisper")
	start := time.Now()
	cmd := exec.CommandContext(ctx, w.bin,
		"-m", w.model,
		"-f", audioPath,
		"-oj",
		"-of", outPrefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return transcript.Transcript{}, ctx.Err()
		}
		return transcript.Transcript{}, fmt.Errorf("whisper.cpp failed: %w: %s", err, tail(string(out), 512))
	}

	data, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("cannot read whisper.cpp output: %w", err)
	}
	tr, err := parseWhisperJSON(data)
	if err != nil {
		return transcript.Transcript{}, err
	}

	w.logger.Info("transcription complete",
		"backend", BackendWhisperCPP,
		"segments", len(tr.Segments),
		"chars", len(tr.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tr, nil
}

type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON reads whisper.cpp -oj output. Offsets are milliseconds.
func parseWhisperJSON(data []byte) (transcript.Transcript, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return transcript.Transcript{}, fmt.Errorf("cannot parse whisper.cpp JSON: %w", err)
	}
	segs := make([]transcript.Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		segs = append(segs, transcript.Segment{
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
			Text:  t.Text,
		})
	}
	return transcript.FromSegments(segs), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

var _ Transcriber = (*WhisperCPP)(nil)

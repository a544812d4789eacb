package media

import (
	"bytes"
	"context"
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
)

const (
	maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

	DefaultFrameWidth = 160
)

type Config struct {
	FFmpegPath    string // empty = "ffmpeg" on PATH
	FFprobePath   string // empty = "ffprobe" on PATH
	WhisperPath   string // optional whisper.cpp binary, reported by Doctor
	ProbeTimeout  time.Duration
	AudioTimeout  time.Duration
	DoctorTimeout time.Duration
	// FrameWidth is the width frames are scaled to before scene analysis.
	FrameWidth int
	Logger     *slog.Logger
	DebugPaths bool // if true, log full file paths; otherwise sanitise
}

func DefaultConfig(logger *slog.Logger) Config {
	return Config{
		FFmpegPath:    "ffmpeg",
		FFprobePath:   "ffprobe",
		ProbeTimeout:  30 * time.Second,
		AudioTimeout:  15 * time.Minute,
		DoctorTimeout: 10 * time.Second,
		FrameWidth:    DefaultFrameWidth,
		Logger:        logger,
	}
}

// Toolkit runs ffmpeg and ffprobe as subprocesses. Binaries are resolved
// on each call, so a missing install surfaces as a failed call and in
// Doctor rather than at construction.
type Toolkit struct {
	cfg Config
}

func New(cfg Config) *Toolkit {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 30 * time.Second
	}
	if cfg.AudioTimeout <= 0 {
		cfg.AudioTimeout = 15 * time.Minute
	}
	if cfg.DoctorTimeout <= 0 {
		cfg.DoctorTimeout = 10 * time.Second
	}
	if cfg.FrameWidth <= 0 {
		cfg.FrameWidth = DefaultFrameWidth
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Logger = logging.WithComponent(cfg.Logger, "media")
	return &Toolkit{cfg: cfg}
}

// ExtractAudio writes a 16 kHz mono PCM WAV suitable for speech recognition.
func (t *Toolkit) ExtractAudio(ctx context.Context, videoPath, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.AudioTimeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("cannot create audio dir: %w", err)
	}

	result := t.exec(ctx, t.cfg.FFmpegPath, io.Discard,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", videoPath,
		"-vn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le",
		outPath,
	)
	if !result.IsSuccess() {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("ffmpeg audio extraction exited %d: %s", result.ExitCode, truncate(result.StderrTail, 512))
	}
	t.cfg.Logger.Info("audio extracted",
		"input", t.safePath(videoPath),
		"output", t.safePath(outPath),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return nil
}

// exec is the core subprocess helper. stdout receives the process output;
// stderr is kept as a bounded tail.
func (t *Toolkit) exec(ctx context.Context, bin string, stdout io.Writer, args ...string) RunResult {
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	cmd.Stdout = stdout

	t.cfg.Logger.Debug("executing media command", "bin", filepath.Base(bin), "args", len(args))

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
			if stderrBuf.Len() == 0 {
				stderrBuf.WriteString(err.Error())
			}
		}
	}

	stderrTail := stderrBuf.String()
	if exitCode != 0 {
		t.cfg.Logger.Warn("media command failed",
			"bin", filepath.Base(bin),
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	}

	return RunResult{ExitCode: exitCode, StderrTail: stderrTail, Duration: elapsed}
}

func (t *Toolkit) safePath(path string) string {
	if t.cfg.DebugPaths {
		return path
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" && strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// resolveBinary finds name on PATH, or checks it directly when it contains
// a path separator.
func resolveBinary(name string) (string, error) {
	if name == "" {
		return "", errors.New("no binary configured")
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", name, err)
	}
	return p, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}

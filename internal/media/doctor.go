package media

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultDoctorTTL = 5 * time.Minute

// Doctor probes the installed binaries. It fails only when neither ffmpeg
// nor ffprobe can run.
func (t *Toolkit) Doctor(ctx context.Context) (*Capabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.DoctorTimeout)
	defer cancel()

	caps := &Capabilities{
		FFmpeg:  t.toolVersion(ctx, t.cfg.FFmpegPath, "-version"),
		FFprobe: t.toolVersion(ctx, t.cfg.FFprobePath, "-version"),
	}
	if t.cfg.WhisperPath != "" {
		info := t.toolVersion(ctx, t.cfg.WhisperPath, "--help")
		caps.WhisperCPP = &info
	}
	caps.CanProbe = caps.FFprobe.Available
	caps.CanExtractAudio = caps.FFmpeg.Available
	caps.CanDetectScenes = caps.FFmpeg.Available && caps.FFprobe.Available
	caps.ProbedAt = time.Now()

	if !caps.FFmpeg.Available && !caps.FFprobe.Available {
		return caps, errors.New("neither ffmpeg nor ffprobe is available")
	}

	t.cfg.Logger.Info("doctor probe complete",
		"ffmpeg", caps.FFmpeg.Available,
		"ffprobe", caps.FFprobe.Available,
		"scenes", caps.CanDetectScenes,
	)
	return caps, nil
}

func (t *Toolkit) toolVersion(ctx context.Context, bin string, arg string) ToolInfo {
	path, err := resolveBinary(bin)
	if err != nil {
		return ToolInfo{Error: err.Error()}
	}
	var out bytes.Buffer
	result := t.exec(ctx, path, &out, arg)
	if !result.IsSuccess() {
		return ToolInfo{Path: path, Error: truncate(strings.TrimSpace(result.StderrTail), 256)}
	}
	return ToolInfo{Available: true, Path: path, Version: firstLine(out.String())}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Prober is implemented by *Toolkit.
type Prober interface {
	Doctor(ctx context.Context) (*Capabilities, error)
}

// CachedDoctor caches doctor results for a TTL so status endpoints do not
// spawn processes on every request.
type CachedDoctor struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(prober Prober, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		prober: prober,
		ttl:    defaultDoctorTTL,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && d.now().Sub(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe. On failure a previous result is returned
// when one exists.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.prober.Doctor(ctx)
	if err != nil {
		d.logger.Warn("doctor probe failed", "error", err)
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return caps, err
	}

	caps.ProbedAt = d.now()
	d.cached = caps
	return caps, nil
}

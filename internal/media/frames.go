package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"sync"

	"github.com/vidnav/vidnav/internal/scenes"
)

// FrameReader streams downscaled rgb24 frames from an ffmpeg subprocess.
// It satisfies scenes.FrameStream.
type FrameReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
	buf    []byte
	fps    float64

	waitOnce sync.Once
	waitErr  error
}

// OpenFrames starts decoding videoPath. info supplies the source geometry
// and frame rate, normally from Probe.
func (t *Toolkit) OpenFrames(ctx context.Context, videoPath string, info VideoInfo) (*FrameReader, error) {
	w, h, err := scaledSize(info.Width, info.Height, t.cfg.FrameWidth)
	if err != nil {
		return nil, err
	}
	fps := info.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, t.cfg.FFmpegPath,
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-i", videoPath,
		"-an", "-sn",
		"-vf", "scale="+strconv.Itoa(w)+":"+strconv.Itoa(h),
		"-pix_fmt", "rgb24",
		"-f", "rawvideo",
		"pipe:1",
	)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cannot open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("cannot start ffmpeg: %w", err)
	}

	t.cfg.Logger.Debug("frame decoding started",
		"path", t.safePath(videoPath),
		"width", w,
		"height", h,
		"fps", fps,
	)

	return &FrameReader{
		cmd:    cmd,
		stdout: stdout,
		stderr: &stderrBuf,
		cancel: cancel,
		buf:    make([]byte, w*h*3),
		fps:    fps,
	}, nil
}

// Next returns the next frame. The slice is reused and is only valid until
// the following call.
func (r *FrameReader) Next() ([]byte, error) {
	_, err := io.ReadFull(r.stdout, r.buf)
	if err == nil {
		return r.buf, nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		if werr := r.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	}
	return nil, err
}

func (r *FrameReader) FrameRate() float64 {
	return r.fps
}

// Close stops ffmpeg if it is still running and reaps it.
func (r *FrameReader) Close() error {
	r.cancel()
	_ = r.wait()
	return nil
}

func (r *FrameReader) wait() error {
	r.waitOnce.Do(func() {
		if err := r.cmd.Wait(); err != nil {
			r.waitErr = fmt.Errorf("ffmpeg decode failed: %w: %s", err, truncate(r.stderr.String(), 512))
		}
	})
	return r.waitErr
}

// Decoder adapts the toolkit to scenes.Decoder: probe for geometry, then
// stream frames.
func (t *Toolkit) Decoder() scenes.Decoder {
	return scenes.DecoderFunc(func(ctx context.Context, videoPath string) (scenes.FrameStream, error) {
		info, err := t.Probe(ctx, videoPath)
		if err != nil {
			return nil, err
		}
		fr, err := t.OpenFrames(ctx, videoPath, *info)
		if err != nil {
			return nil, err
		}
		return fr, nil
	})
}

// scaledSize keeps the aspect ratio at the given width. Both sides are
// even, as required by most ffmpeg scalers.
func scaledSize(srcW, srcH, width int) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, fmt.Errorf("invalid source size %dx%d", srcW, srcH)
	}
	if width <= 0 || width > srcW {
		width = srcW
	}
	w := evenFloor(width)
	h := evenFloor(int(math.Round(float64(srcH) * float64(w) / float64(srcW))))
	return w, h, nil
}

func evenFloor(v int) int {
	v -= v % 2
	if v < 2 {
		return 2
	}
	return v
}

var _ scenes.FrameStream = (*FrameReader)(nil)

package scenes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// FrameStream yields decoded rgb24 frames in presentation order.
type FrameStream interface {
	// Next returns the next frame or io.EOF once the stream is exhausted.
	Next() ([]byte, error)
	FrameRate() float64
	Close() error
}

// Decoder opens a frame stream for a local video file.
type Decoder interface {
	Open(ctx context.Context, videoPath string) (FrameStream, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, videoPath string) (FrameStream, error)

func (f DecoderFunc) Open(ctx context.Context, videoPath string) (FrameStream, error) {
	return f(ctx, videoPath)
}

const ctxCheckEvery = 64

type Segmenter struct {
	decoder Decoder
	logger  *slog.Logger
}

func NewSegmenter(decoder Decoder, logger *slog.Logger) *Segmenter {
	return &Segmenter{decoder: decoder, logger: logger}
}

// Detect runs the configured strategy over every decoded frame. Decoder and
// analysis failures are reported as *DetectionError; context cancellation is
// returned as is.
func (s *Segmenter) Detect(ctx context.Context, videoPath string, opts Options) ([]Scene, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid scene options: %w", err)
	}

	stream, err := s.decoder.Open(ctx, videoPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &DetectionError{Op: "open", Err: err}
	}
	defer stream.Close()

	fps := stream.FrameRate()
	if fps <= 0 {
		return nil, &DetectionError{Op: "open", Err: fmt.Errorf("invalid frame rate %v", fps)}
	}

	var stats frameStats
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &DetectionError{Op: "decode", Err: err}
		}
		stats.add(frame)
	}

	frames := len(stats.luma)
	if frames == 0 {
		return nil, &DetectionError{Op: "decode", Err: errors.New("no frames decoded")}
	}

	var cutFrames []int
	switch opts.Strategy {
	case StrategyAdaptive:
		cutFrames = adaptiveCuts(stats.content, opts.Threshold, adaptiveMinContent, adaptiveWindow)
	case StrategyThresholdLuma:
		cutFrames = lumaCuts(stats.luma, opts.Threshold)
	default:
		cutFrames = contentCuts(stats.content, opts.Threshold)
	}

	cuts := make([]float64, len(cutFrames))
	for i, f := range cutFrames {
		cuts[i] = float64(f) / fps
	}
	duration := float64(frames) / fps
	scenes := fromBoundaries(0, cuts, duration, opts.MinSceneLength)

	if s.logger != nil {
		s.logger.Info("scene detection complete",
			"strategy", opts.Strategy,
			"threshold", opts.Threshold,
			"frames", frames,
			"candidate_cuts", len(cutFrames),
			"scenes", len(scenes),
		)
	}
	return scenes, nil
}

// DetectWithFallback recovers from a DetectionError by returning fixed
// interval scenes over knownDuration. The boolean reports whether the
// fallback was used. Other errors are returned unchanged.
func (s *Segmenter) DetectWithFallback(ctx context.Context, videoPath string, opts Options, knownDuration float64) ([]Scene, bool, error) {
	scenes, err := s.Detect(ctx, videoPath, opts)
	if err == nil {
		return scenes, false, nil
	}

	var detErr *DetectionError
	if !errors.As(err, &detErr) {
		return nil, false, err
	}

	if s.logger != nil {
		s.logger.Warn("scene detection failed, using fixed intervals",
			"error", err,
			"duration", knownDuration,
			"interval", FallbackInterval,
		)
	}
	return FixedInterval(knownDuration, FallbackInterval, opts.MinSceneLength), true, nil
}

package scenes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeStream struct {
	frames  [][]byte
	fps     float64
	failAt  int
	pos     int
	closed  bool
	failErr error
}

func (s *fakeStream) Next() ([]byte, error) {
	if s.failErr != nil && s.pos == s.failAt {
		return nil, s.failErr
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *fakeStream) FrameRate() float64 { return s.fps }

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func solidFrame(r, g, b byte) []byte {
	f := make([]byte, 4*3)
	for p := 0; p < 4; p++ {
		f[p*3], f[p*3+1], f[p*3+2] = r, g, b
	}
	return f
}

func repeat(frame []byte, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = frame
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func segmenterFor(stream *fakeStream, openErr error) *Segmenter {
	dec := DecoderFunc(func(ctx context.Context, path string) (FrameStream, error) {
		if openErr != nil {
			return nil, openErr
		}
		return stream, nil
	})
	return NewSegmenter(dec, testLogger())
}

func TestDetect_ContentCut(t *testing.T) {
	frames := append(repeat(solidFrame(255, 0, 0), 20), repeat(solidFrame(0, 0, 255), 20)...)
	stream := &fakeStream{frames: frames, fps: 10}

	got, err := segmenterFor(stream, nil).Detect(context.Background(), "in.mp4", Options{Strategy: StrategyContent, MinSceneLength: 1})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].EndSeconds != 2 || got[1].StartSeconds != 2 || got[1].EndSeconds != 4 {
		t.Fatalf("scenes = %+v, want [0,2] [2,4]", got)
	}
	if !stream.closed {
		t.Fatal("stream was not closed")
	}
}

func TestDetect_HigherThresholdMergesScenes(t *testing.T) {
	frames := append(repeat(solidFrame(255, 0, 0), 20), repeat(solidFrame(0, 0, 255), 20)...)
	stream := &fakeStream{frames: frames, fps: 10}

	got, err := segmenterFor(stream, nil).Detect(context.Background(), "in.mp4", Options{Strategy: StrategyContent, Threshold: 90, MinSceneLength: 1})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestDetect_LumaFade(t *testing.T) {
	gray := solidFrame(200, 200, 200)
	black := solidFrame(0, 0, 0)
	frames := append(append(repeat(gray, 10), repeat(black, 5)...), repeat(gray, 15)...)
	stream := &fakeStream{frames: frames, fps: 10}

	got, err := segmenterFor(stream, nil).Detect(context.Background(), "in.mp4", Options{Strategy: StrategyThresholdLuma, MinSceneLength: 1})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].EndSeconds != 1.2 {
		t.Fatalf("cut at %v, want 1.2", got[0].EndSeconds)
	}
}

func TestDetect_OpenFailureIsDetectionError(t *testing.T) {
	_, err := segmenterFor(nil, errors.New("moov atom not found")).Detect(context.Background(), "bad.mp4", Options{})

	var detErr *DetectionError
	if !errors.As(err, &detErr) {
		t.Fatalf("Detect() error = %v, want *DetectionError", err)
	}
	if detErr.Op != "open" {
		t.Fatalf("Op = %q, want open", detErr.Op)
	}
}

func TestDetect_NoFramesIsDetectionError(t *testing.T) {
	_, err := segmenterFor(&fakeStream{fps: 25}, nil).Detect(context.Background(), "empty.mp4", Options{})

	var detErr *DetectionError
	if !errors.As(err, &detErr) {
		t.Fatalf("Detect() error = %v, want *DetectionError", err)
	}
}

func TestDetectWithFallback_DecodeFailure(t *testing.T) {
	stream := &fakeStream{
		frames:  repeat(solidFrame(10, 10, 10), 10),
		fps:     25,
		failAt:  3,
		failErr: errors.New("invalid data found when processing input"),
	}

	got, fellBack, err := segmenterFor(stream, nil).DetectWithFallback(context.Background(), "in.mp4", Options{MinSceneLength: 1}, 25)
	if err != nil {
		t.Fatalf("DetectWithFallback() error = %v", err)
	}
	if !fellBack {
		t.Fatal("expected fallback")
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if !stream.closed {
		t.Fatal("stream was not closed on failure")
	}
}

func TestDetectWithFallback_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := &fakeStream{frames: repeat(solidFrame(1, 2, 3), 5), fps: 25}
	_, _, err := segmenterFor(stream, nil).DetectWithFallback(ctx, "in.mp4", Options{}, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestAdaptiveCuts(t *testing.T) {
	content := []float64{0, 1, 1, 1, 40, 1, 1, 1}
	got := adaptiveCuts(content, DefaultAdaptiveThreshold, adaptiveMinContent, adaptiveWindow)
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("adaptiveCuts() = %v, want [4]", got)
	}

	// Sustained motion raises the neighbour average and suppresses the cut.
	busy := []float64{0, 30, 30, 30, 40, 30, 30, 30}
	if got := adaptiveCuts(busy, DefaultAdaptiveThreshold, adaptiveMinContent, adaptiveWindow); len(got) != 0 {
		t.Fatalf("adaptiveCuts(busy) = %v, want none", got)
	}
}

func TestLumaCuts_StartsDark(t *testing.T) {
	luma := []float64{0, 0, 0, 100, 100, 100}
	if got := lumaCuts(luma, DefaultLumaThreshold); len(got) != 0 {
		t.Fatalf("lumaCuts() = %v, want none for initial fade-in", got)
	}
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		r, g, b byte
		h, s, v byte
	}{
		{255, 0, 0, 0, 255, 255},
		{0, 255, 0, 60, 255, 255},
		{0, 0, 255, 120, 255, 255},
		{128, 128, 128, 0, 0, 128},
		{0, 0, 0, 0, 0, 0},
	}
	for _, tc := range tests {
		h, s, v := rgbToHSV(tc.r, tc.g, tc.b)
		if h != tc.h || s != tc.s || v != tc.v {
			t.Errorf("rgbToHSV(%d,%d,%d) = (%d,%d,%d), want (%d,%d,%d)", tc.r, tc.g, tc.b, h, s, v, tc.h, tc.s, tc.v)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"":               StrategyContent,
		"Content":        StrategyContent,
		"adaptive":       StrategyAdaptive,
		"threshold":      StrategyThresholdLuma,
		"threshold-luma": StrategyThresholdLuma,
	}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		if err != nil {
			t.Errorf("ParseStrategy(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseStrategy("histogram"); err == nil {
		t.Error("ParseStrategy(histogram) error = nil, want error")
	}
}

// Package pipeline runs timestamp synthesis: scene detection, main-scene
// filtering, per-scene labelling against the transcript and the merge with
// whole-transcript timestamps.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vidnav/vidnav/internal/llm"
	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timestamps"
	"github.com/vidnav/vidnav/internal/transcript"
)

// Generator is the text generation collaborator. *llm.Client implements it.
type Generator interface {
	scenes.Selector
	GenerateLabel(ctx context.Context, req llm.LabelRequest) (string, error)
	GenerateTimestamps(ctx context.Context, text, title string) ([]timestamps.Timestamp, error)
	GenerateSummary(ctx context.Context, text, title string) (string, error)
	GenerateDescription(ctx context.Context, text, title string) (string, error)
}

// SceneDetector is implemented by *scenes.Segmenter.
type SceneDetector interface {
	DetectWithFallback(ctx context.Context, videoPath string, opts scenes.Options, knownDuration float64) ([]scenes.Scene, bool, error)
}

type Deps struct {
	Detector    SceneDetector
	Generator   Generator
	Windower    transcript.Windower
	Retention   scenes.RetentionPolicy
	MatchWindow time.Duration
	Logger      *slog.Logger
}

type Pipeline struct {
	detector    SceneDetector
	generator   Generator
	filter      *scenes.BudgetFilter
	windower    transcript.Windower
	matchWindow time.Duration
	logger      *slog.Logger
}

func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logging.WithComponent(logger, "pipeline")

	policy := deps.Retention
	if policy == (scenes.RetentionPolicy{}) {
		policy = scenes.DefaultRetentionPolicy()
	}
	windower := deps.Windower
	if windower == (transcript.Windower{}) {
		windower = transcript.NewWindower()
	}
	window := deps.MatchWindow
	if window <= 0 {
		window = timestamps.DefaultMatchWindow
	}

	var selector scenes.Selector
	if deps.Generator != nil {
		selector = deps.Generator
	}
	return &Pipeline{
		detector:    deps.Detector,
		generator:   deps.Generator,
		filter:      scenes.NewBudgetFilter(selector, policy, logger),
		windower:    windower,
		matchWindow: window,
		logger:      logger,
	}
}

// SceneResult is the output of detection plus filtering.
type SceneResult struct {
	// Detected holds every scene the segmenter produced.
	Detected []scenes.Scene `json:"detected_scenes"`
	// Main is the filtered subset, in original order.
	Main         []scenes.Scene `json:"scenes"`
	UsedFallback bool           `json:"used_fallback"`
}

// DetectScenes segments the video and reduces the result to main scenes.
// Decode failures are absorbed into fixed-interval scenes over
// knownDuration.
func (p *Pipeline) DetectScenes(ctx context.Context, videoPath string, opts scenes.Options, knownDuration float64, title string) (SceneResult, error) {
	if p.detector == nil {
		return SceneResult{}, errors.New("pipeline: no scene detector configured")
	}
	detected, fellBack, err := p.detector.DetectWithFallback(ctx, videoPath, opts, knownDuration)
	if err != nil {
		return SceneResult{}, err
	}
	main := p.filter.Filter(ctx, detected, title)
	p.logger.Info("scenes ready",
		"detected", len(detected),
		"main", len(main),
		"fallback", fellBack,
	)
	return SceneResult{Detected: detected, Main: main, UsedFallback: fellBack}, nil
}

// LabelScenes returns copies of list with generated labels. A failed,
// empty or generic answer, or an empty transcript window, yields
// llm.FallbackLabel. It never fails unless ctx is done.
func (p *Pipeline) LabelScenes(ctx context.Context, list []scenes.Scene, tr transcript.Transcript, title string) ([]scenes.Scene, error) {
	out := make([]scenes.Scene, len(list))
	copy(out, list)

	generated, fallbacks := 0, 0
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := &out[i]
		n := i + 1
		fallback := llm.FallbackLabel(n, s.Duration())

		window := p.windower.Extract(tr, s.StartSeconds, s.EndSeconds)
		if strings.TrimSpace(window.Text) == "" || p.generator == nil {
			s.Label = fallback
			fallbacks++
			continue
		}

		label, err := p.generator.GenerateLabel(ctx, llm.LabelRequest{
			SceneNumber: n,
			Start:       s.StartSeconds,
			End:         s.EndSeconds,
			Window:      window,
			Title:       title,
		})
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("scene label generation failed, using fallback", "scene", n, "error", err)
			s.Label = fallback
			fallbacks++
		case llm.IsGenericLabel(label):
			p.logger.Debug("generic scene label replaced", "scene", n, "label", label)
			s.Label = fallback
			fallbacks++
		default:
			s.Label = label
			generated++
		}
	}

	p.logger.Info("scene labelling complete", "generated", generated, "fallback", fallbacks)
	return out, nil
}

// Input drives one full timestamp synthesis run.
type Input struct {
	VideoPath  string
	Transcript transcript.Transcript
	Title      string
	Scenes     scenes.Options
	// Duration is the known video length, used for fixed-interval
	// fallback scenes.
	Duration float64
}

type Result struct {
	Scenes              SceneResult            `json:"scene_detection"`
	SceneTimestamps     []timestamps.Timestamp `json:"scene_timestamps"`
	GeneratedTimestamps []timestamps.Timestamp `json:"generated_timestamps"`
	Timestamps          []timestamps.Timestamp `json:"timestamps"`
}

// Run executes detection, filtering, labelling and the merge with
// whole-transcript timestamps. Only a *llm.GenerationError from the
// whole-transcript pass, or ctx cancellation, fails the run.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()

	sr, err := p.DetectScenes(ctx, in.VideoPath, in.Scenes, in.Duration, in.Title)
	if err != nil {
		return nil, err
	}

	labelled, err := p.LabelScenes(ctx, sr.Main, in.Transcript, in.Title)
	if err != nil {
		return nil, err
	}
	sr.Main = labelled
	sceneTS := timestamps.FromScenes(labelled)

	generated, err := p.GenerateTimestamps(ctx, in.Transcript, in.Title)
	if err != nil {
		return nil, err
	}

	merged := timestamps.Merge(sceneTS, generated, p.matchWindow)
	p.logger.Info("timestamp synthesis complete",
		"scene_timestamps", len(sceneTS),
		"generated_timestamps", len(generated),
		"merged", len(merged),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{
		Scenes:              sr,
		SceneTimestamps:     sceneTS,
		GeneratedTimestamps: generated,
		Timestamps:          merged,
	}, nil
}

// GenerateTimestamps runs the whole-transcript pass. An empty transcript
// yields no timestamps without calling the generator.
func (p *Pipeline) GenerateTimestamps(ctx context.Context, tr transcript.Transcript, title string) ([]timestamps.Timestamp, error) {
	if tr.Empty() || p.generator == nil {
		return []timestamps.Timestamp{}, nil
	}
	return p.generator.GenerateTimestamps(ctx, tr.Text, title)
}

// CanGenerate reports whether a text generator is configured.
func (p *Pipeline) CanGenerate() bool {
	return p.generator != nil
}

func (p *Pipeline) Summary(ctx context.Context, tr transcript.Transcript, title string) (string, error) {
	if tr.Empty() {
		return "", ErrEmptyTranscript
	}
	if p.generator == nil {
		return "", ErrNoGenerator
	}
	return p.generator.GenerateSummary(ctx, tr.Text, title)
}

func (p *Pipeline) Description(ctx context.Context, tr transcript.Transcript, title string) (string, error) {
	if tr.Empty() {
		return "", ErrEmptyTranscript
	}
	if p.generator == nil {
		return "", ErrNoGenerator
	}
	return p.generator.GenerateDescription(ctx, tr.Text, title)
}

// ErrEmptyTranscript is returned when text generation is requested for a
// transcript with no words.
var ErrEmptyTranscript = errors.New("transcript is empty")

// ErrNoGenerator is returned by Summary and Description when no text
// generator is configured.
var ErrNoGenerator = errors.New("text generation is not configured")

var _ Generator = (*llm.Client)(nil)
var _ SceneDetector = (*scenes.Segmenter)(nil)

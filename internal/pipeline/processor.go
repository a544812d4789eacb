package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/media"
	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timestamps"
	"github.com/vidnav/vidnav/internal/transcribe"
	"github.com/vidnav/vidnav/internal/transcript"
)

// Task selects what a processing request produces.
type Task string

const (
	TaskSummary     Task = "summary"
	TaskDescription Task = "description"
	TaskTimestamps  Task = "timestamps"
	TaskScenes      Task = "scenes"
	TaskAll         Task = "all"
)

// DefaultPauseGap is the minimum silence reported as a pause.
const DefaultPauseGap = 1.0

func ParseTask(s string) (Task, error) {
	switch t := Task(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TaskAll, nil
	case TaskSummary, TaskDescription, TaskTimestamps, TaskScenes, TaskAll:
		return t, nil
	default:
		return "", fmt.Errorf("unknown processing type %q", s)
	}
}

func (t Task) needsTranscript() bool {
	return t != TaskScenes
}

// Media is the subset of *media.Toolkit the processor uses.
type Media interface {
	ProbeOrDefault(ctx context.Context, videoPath string) media.VideoInfo
	ExtractAudio(ctx context.Context, videoPath, outPath string) error
}

// ProgressFunc receives coarse progress updates (0-100).
type ProgressFunc func(stage string, percent int)

type Request struct {
	VideoPath string
	Title     string
	Task      Task
	Scenes    scenes.Options
	Progress  ProgressFunc
}

// Response is the combined result of a processing request. Fields not
// produced by the requested task are left empty.
type Response struct {
	Task         Task                   `json:"type"`
	Video        media.VideoInfo        `json:"video"`
	Transcript   *TranscriptResult      `json:"transcript,omitempty"`
	Summary      string                 `json:"summary,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Scenes       []scenes.Scene         `json:"scenes,omitempty"`
	SceneCount   int                    `json:"scene_count,omitempty"`
	Timestamps   []timestamps.Timestamp `json:"timestamps,omitempty"`
	UsedFallback bool                   `json:"scene_fallback,omitempty"`
	DurationMS   int64                  `json:"processing_ms"`
}

type TranscriptResult struct {
	Text     string               `json:"text"`
	Segments []transcript.Segment `json:"segments"`
	Pauses   []transcript.Pause   `json:"pauses"`
	Backend  string               `json:"backend"`
}

// Processor turns a stored video into transcripts, generated text and
// timestamps.
type Processor struct {
	media       Media
	transcriber transcribe.Transcriber
	pipeline    *Pipeline
	workDir     string
	logger      *slog.Logger
}

func NewProcessor(m Media, tr transcribe.Transcriber, p *Pipeline, workDir string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		media:       m,
		transcriber: tr,
		pipeline:    p,
		workDir:     workDir,
		logger:      logging.WithComponent(logger, "processor"),
	}
}

func (p *Processor) Pipeline() *Pipeline {
	return p.pipeline
}

// Transcribe extracts audio to a temporary WAV, transcribes it and removes
// the WAV.
func (p *Processor) Transcribe(ctx context.Context, videoPath string) (*TranscriptResult, error) {
	if p.transcriber == nil {
		return nil, errors.New("no transcription backend configured")
	}
	if p.workDir != "" {
		if err := os.MkdirAll(p.workDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create work dir: %w", err)
		}
	}
	f, err := os.CreateTemp(p.workDir, "audio-*.wav")
	if err != nil {
		return nil, fmt.Errorf("cannot create audio file: %w", err)
	}
	audioPath := f.Name()
	f.Close()
	defer os.Remove(audioPath)

	if err := p.media.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	tr, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	segments := tr.Segments
	if segments == nil {
		segments = []transcript.Segment{}
	}
	return &TranscriptResult{
		Text:     tr.Text,
		Segments: segments,
		Pauses:   transcript.DetectPauses(segments, DefaultPauseGap),
		Backend:  p.transcriber.Name(),
	}, nil
}

// Process runs the requested task end to end.
func (p *Processor) Process(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	progress := req.Progress
	if progress == nil {
		progress = func(string, int) {}
	}
	task := req.Task
	if task == "" {
		task = TaskAll
	}
	logger := logging.WithVideo(p.logger, req.VideoPath)
	if task == TaskAll && !p.pipeline.CanGenerate() {
		logger.Warn("no text generator configured, skipping summary and description")
	}

	progress("probe", 5)
	info := p.media.ProbeOrDefault(ctx, req.VideoPath)
	resp := &Response{Task: task, Video: info}

	var tr transcript.Transcript
	if task.needsTranscript() {
		progress("transcribe", 10)
		result, err := p.Transcribe(ctx, req.VideoPath)
		if err != nil {
			return nil, err
		}
		resp.Transcript = result
		if len(result.Segments) > 0 {
			tr = transcript.FromSegments(result.Segments)
		} else {
			tr = transcript.FromText(result.Text)
		}
	}

	if task == TaskSummary || task == TaskAll {
		progress("summary", 40)
		summary, err := p.pipeline.Summary(ctx, tr, req.Title)
		if err != nil && !(task == TaskAll && skippable(err)) {
			return nil, fmt.Errorf("summary: %w", err)
		}
		resp.Summary = summary
	}

	if task == TaskDescription || task == TaskAll {
		progress("description", 50)
		desc, err := p.pipeline.Description(ctx, tr, req.Title)
		if err != nil && !(task == TaskAll && skippable(err)) {
			return nil, fmt.Errorf("description: %w", err)
		}
		resp.Description = desc
	}

	switch task {
	case TaskScenes:
		progress("scenes", 30)
		sr, err := p.pipeline.DetectScenes(ctx, req.VideoPath, req.Scenes, info.Duration, req.Title)
		if err != nil {
			return nil, fmt.Errorf("scene detection: %w", err)
		}
		resp.Scenes = sr.Main
		resp.SceneCount = len(sr.Detected)
		resp.UsedFallback = sr.UsedFallback
		resp.Timestamps = timestamps.FromScenes(sr.Main)
	case TaskTimestamps, TaskAll:
		progress("timestamps", 60)
		result, err := p.pipeline.Run(ctx, Input{
			VideoPath:  req.VideoPath,
			Transcript: tr,
			Title:      req.Title,
			Scenes:     req.Scenes,
			Duration:   info.Duration,
		})
		if err != nil {
			return nil, fmt.Errorf("timestamps: %w", err)
		}
		resp.Scenes = result.Scenes.Main
		resp.SceneCount = len(result.Scenes.Detected)
		resp.UsedFallback = result.Scenes.UsedFallback
		resp.Timestamps = result.Timestamps
	}

	progress("done", 100)
	resp.DurationMS = time.Since(start).Milliseconds()
	logger.Info("video processed",
		"type", task,
		"scenes", len(resp.Scenes),
		"timestamps", len(resp.Timestamps),
		"duration_ms", resp.DurationMS,
	)
	return resp, nil
}

// skippable reports whether a whole-transcript generation failure leaves
// the rest of an "all" request meaningful.
func skippable(err error) bool {
	return errors.Is(err, ErrEmptyTranscript) || errors.Is(err, ErrNoGenerator)
}

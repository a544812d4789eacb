// Package api exposes vidnav over HTTP: synchronous video and transcript
// endpoints, timestamp export and the background job queue.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vidnav/vidnav/internal/jobs"
	"github.com/vidnav/vidnav/internal/media"
	"github.com/vidnav/vidnav/internal/pipeline"
	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timestamps"
	"github.com/vidnav/vidnav/internal/transcript"
)

// DefaultMaxUploadBytes caps multipart uploads.
const DefaultMaxUploadBytes = 500 << 20

// VideoProcessor is implemented by *pipeline.Processor.
type VideoProcessor interface {
	Transcribe(ctx context.Context, videoPath string) (*pipeline.TranscriptResult, error)
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

// TextGenerator is implemented by *pipeline.Pipeline.
type TextGenerator interface {
	Summary(ctx context.Context, tr transcript.Transcript, title string) (string, error)
	Description(ctx context.Context, tr transcript.Transcript, title string) (string, error)
	GenerateTimestamps(ctx context.Context, tr transcript.Transcript, title string) ([]timestamps.Timestamp, error)
}

// JobService is implemented by *jobs.Service.
type JobService interface {
	Submit(ctx context.Context, videoPath, filename string, params jobs.Params) (*jobs.Job, error)
	Get(ctx context.Context, id string) (*jobs.Job, error)
	List(ctx context.Context, limit int) ([]*jobs.Job, error)
	Counts(ctx context.Context) (map[string]int, error)
}

// RunnerState is implemented by *jobs.Runner.
type RunnerState interface {
	IsRunning() bool
	IsPaused() bool
	ActiveJobs() int
}

// CapabilityReporter is implemented by *media.CachedDoctor.
type CapabilityReporter interface {
	Get(ctx context.Context) (*media.Capabilities, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Addr           string
	Version        string
	MaxUploadBytes int64
	// TempDir receives uploads for synchronous requests; UploadDir keeps
	// queued job uploads until the runner is done with them.
	TempDir       string
	UploadDir     string
	SceneDefaults scenes.Options
	CORSOrigins   []string

	Processor   VideoProcessor
	Generator   TextGenerator
	Jobs        JobService
	Runner      RunnerState
	Doctor      CapabilityReporter
	Transcriber string
	Logger      *slog.Logger
	StartTime   time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      0,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/pipeline"
	"github.com/vidnav/vidnav/internal/scenes"
)

// Processor is implemented by *pipeline.Processor.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

type Runner struct {
	repo         Repository
	processor    Processor
	logger       *slog.Logger
	pollInterval time.Duration
	retention    time.Duration
	jobTimeout   time.Duration
	running      atomic.Bool
	paused       atomic.Bool
	active       atomic.Int32
}

// NewRunner returns a runner polling every pollInterval. Finished jobs
// older than retention are purged; zero keeps them forever.
func NewRunner(repo Repository, processor Processor, pollInterval, retention time.Duration, logger *slog.Logger) *Runner {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		repo:         repo,
		processor:    processor,
		logger:       logging.WithComponent(logger, "jobs"),
		pollInterval: pollInterval,
		retention:    retention,
	}
}

// Start blocks until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started", "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	purge := time.NewTicker(time.Hour)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		case <-purge.C:
			r.purgeFinished(ctx)
		}
	}
}

// SetJobTimeout bounds the processing time of each job; zero disables.
func (r *Runner) SetJobTimeout(d time.Duration) {
	r.jobTimeout = d
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) ActiveJobs() int {
	return int(r.active.Load())
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	switch job.Type {
	case TypeProcessVideo:
		r.processVideoJob(ctx, job)
	default:
		r.logger.Warn("unknown job type", "job_id", job.ID, "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, StatusFailed, "unknown job type")
	}
}

// processVideoJob runs one upload through the processor. The uploaded file
// is removed whatever the outcome.
func (r *Runner) processVideoJob(ctx context.Context, job *Job) {
	logger := logging.WithJobID(r.logger, job.ID)
	r.active.Add(1)
	defer r.active.Add(-1)
	defer func() {
		if job.VideoPath == "" {
			return
		}
		if err := os.Remove(job.VideoPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove uploaded video", "error", err)
		}
	}()

	req, err := job.Params.Request(job.VideoPath)
	if err != nil {
		r.fail(ctx, job, err)
		return
	}
	if err := r.repo.UpdateJobStatus(ctx, job.ID, StatusRunning, ""); err != nil {
		logger.Error("failed to mark job running", "error", err)
		return
	}

	logger.Info("processing job", "type", req.Task, "filename", job.Filename)
	start := time.Now()

	lastPct := -1
	req.Progress = func(stage string, pct int) {
		if pct == lastPct {
			return
		}
		lastPct = pct
		if err := r.repo.UpdateJobProgress(ctx, job.ID, pct, stage); err != nil {
			logger.Warn("failed to record progress", "error", err)
		}
	}

	procCtx := ctx
	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	resp, err := r.processor.Process(procCtx, req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			r.fail(context.WithoutCancel(ctx), job, fmt.Errorf("interrupted: %w", ctx.Err()))
		case errors.Is(procCtx.Err(), context.DeadlineExceeded):
			r.fail(ctx, job, fmt.Errorf("timed out after %s", r.jobTimeout))
		default:
			r.fail(ctx, job, err)
		}
		return
	}

	result, err := json.Marshal(resp)
	if err != nil {
		r.fail(ctx, job, fmt.Errorf("encode result: %w", err))
		return
	}
	if err := r.repo.CompleteJob(ctx, job.ID, result); err != nil {
		logger.Error("failed to store job result", "error", err)
		return
	}
	logger.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
}

func (r *Runner) fail(ctx context.Context, job *Job, err error) {
	r.logger.Warn("job failed", "job_id", job.ID, "error", err)
	if uerr := r.repo.UpdateJobStatus(ctx, job.ID, StatusFailed, err.Error()); uerr != nil {
		r.logger.Error("failed to mark job failed", "job_id", job.ID, "error", uerr)
	}
}

func (r *Runner) purgeFinished(ctx context.Context) {
	if r.retention <= 0 {
		return
	}
	n, err := r.repo.DeleteFinishedBefore(ctx, time.Now().Add(-r.retention))
	if err != nil {
		r.logger.Warn("failed to purge finished jobs", "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("purged finished jobs", "count", n)
	}
}

// Request converts stored parameters into a processing request.
func (p Params) Request(videoPath string) (pipeline.Request, error) {
	task, err := pipeline.ParseTask(p.Task)
	if err != nil {
		return pipeline.Request{}, err
	}
	strategy, err := scenes.ParseStrategy(p.SceneMethod)
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		VideoPath: videoPath,
		Title:     p.Title,
		Task:      task,
		Scenes: scenes.Options{
			Strategy:       strategy,
			Threshold:      p.Threshold,
			MinSceneLength: p.MinSceneLength,
		},
	}, nil
}

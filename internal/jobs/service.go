package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service is the API-facing side of the queue.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Submit queues an uploaded video. The runner owns videoPath from here on
// and removes it when the job finishes.
func (s *Service) Submit(ctx context.Context, videoPath, filename string, params Params) (*Job, error) {
	if _, err := params.Request(videoPath); err != nil {
		return nil, fmt.Errorf("invalid job parameters: %w", err)
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      TypeProcessVideo,
		Status:    StatusPending,
		VideoPath: videoPath,
		Filename:  filename,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("job queued", "job_id", job.ID, "type", params.Task, "filename", filename)
	}
	return job, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) Counts(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByStatus(ctx)
}

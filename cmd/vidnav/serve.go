package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidnav/vidnav/internal/api"
	"github.com/vidnav/vidnav/internal/config"
	"github.com/vidnav/vidnav/internal/db"
	"github.com/vidnav/vidnav/internal/jobs"
	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/media"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background job runner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	tempDir := filepath.Join(cfg.DataDir(), "tmp")
	for _, dir := range []string{cfg.DataDir(), cfg.UploadDir(), tempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting vidnav", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sceneDefaults, err := a.sceneDefaults()
	if err != nil {
		return err
	}

	doctor := media.NewCachedDoctor(a.toolkit, logger)
	initCtx, initCancel := context.WithTimeout(ctx, cfg.TimeoutDoctor())
	if caps, err := doctor.Refresh(initCtx); err != nil {
		logger.Warn("initial media probe failed", "error", err)
	} else {
		logger.Info("media capabilities detected",
			"probe", caps.CanProbe,
			"audio", caps.CanExtractAudio,
			"scenes", caps.CanDetectScenes,
		)
	}
	initCancel()

	repo := jobs.NewRepository(database.Conn())
	jobSvc := jobs.NewService(repo, logger)
	runner := jobs.NewRunner(repo, a.processor, cfg.JobPollInterval(), cfg.JobRetention(), logger)
	runner.SetJobTimeout(cfg.TimeoutJob())
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Addr:           cfg.Addr(),
		Version:        config.Version,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		TempDir:        tempDir,
		UploadDir:      cfg.UploadDir(),
		SceneDefaults:  sceneDefaults,
		CORSOrigins:    cfg.CORSOrigins(),
		Processor:      a.processor,
		Generator:      a.pipeline,
		Jobs:           jobSvc,
		Runner:         runner,
		Doctor:         doctor,
		Transcriber:    a.transcriberName(),
		Logger:         logger,
		StartTime:      startTime,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case serveErr = <-errCh:
		logger.Error("HTTP server error", "error", serveErr)
	}

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return serveErr
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vidnav/vidnav/internal/config"
	"github.com/vidnav/vidnav/internal/export"
	"github.com/vidnav/vidnav/internal/logging"
	"github.com/vidnav/vidnav/internal/pipeline"
	"github.com/vidnav/vidnav/internal/scenes"
)

// sceneFlags are shared by the one-shot commands. Zero values defer to the
// configured defaults.
type sceneFlags struct {
	method         string
	threshold      float64
	minSceneLength float64
	title          string
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.method, "method", "", "scene detection strategy: content, adaptive or threshold")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "detector sensitivity (0 uses the strategy default)")
	cmd.Flags().Float64Var(&f.minSceneLength, "min-scene-length", 0, "minimum scene length in seconds")
	cmd.Flags().StringVar(&f.title, "title", "", "video title passed to the model")
}

func (f *sceneFlags) options(defaults scenes.Options) (scenes.Options, error) {
	opts := defaults
	if f.method != "" {
		strategy, err := scenes.ParseStrategy(f.method)
		if err != nil {
			return scenes.Options{}, err
		}
		if strategy != opts.Strategy {
			opts.Threshold = 0
		}
		opts.Strategy = strategy
	}
	if f.threshold != 0 {
		opts.Threshold = f.threshold
	}
	if f.minSceneLength != 0 {
		opts.MinSceneLength = f.minSceneLength
	}
	return opts.Normalize()
}

func newDetectCmd() *cobra.Command {
	var flags sceneFlags
	cmd := &cobra.Command{
		Use:   "detect <video>",
		Short: "Detect and label the main scenes of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := analyze(cmd.Context(), args[0], pipeline.TaskScenes, &flags)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTimestampsCmd() *cobra.Command {
	var (
		flags  sceneFlags
		format string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "timestamps <video>",
		Short: "Generate navigation timestamps for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var exportFormat export.Format
			if format != "json" {
				f, err := export.ParseFormat(format)
				if err != nil {
					return err
				}
				exportFormat = f
			}

			resp, err := analyze(cmd.Context(), args[0], pipeline.TaskTimestamps, &flags)
			if err != nil {
				return err
			}
			if exportFormat == "" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			title := flags.title
			if title == "" {
				title = videoTitle(args[0])
			}
			opts := export.Options{Title: title, FrameRate: resp.Video.FPS, Duration: resp.Video.Duration}

			if outDir != "" {
				path, err := export.WriteFile(outDir, exportFormat, resp.Timestamps, opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			out, err := export.Render(exportFormat, resp.Timestamps, opts)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "output format: json, chapters, webvtt or edl")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write the export to this directory instead of stdout")
	return cmd
}

// analyze runs one processing task on a local video. Logs go to stderr so
// stdout carries only the result.
func analyze(ctx context.Context, videoPath string, task pipeline.Task, flags *sceneFlags) (*pipeline.Response, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video not found: %w", err)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLoggerTo(os.Stderr, cfg.LogLevel())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	defaults, err := a.sceneDefaults()
	if err != nil {
		return nil, err
	}
	opts, err := flags.options(defaults)
	if err != nil {
		return nil, err
	}
	title := flags.title
	if title == "" {
		title = videoTitle(videoPath)
	}
	return a.processor.Process(ctx, pipeline.Request{
		VideoPath: videoPath,
		Title:     title,
		Task:      task,
		Scenes:    opts,
		Progress: func(stage string, percent int) {
			logger.Debug("progress", "stage", stage, "percent", percent)
		},
	})
}

func videoTitle(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

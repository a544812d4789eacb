package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidnav/vidnav/internal/jobs"
	"github.com/vidnav/vidnav/internal/pipeline"
	"github.com/vidnav/vidnav/internal/timestamps"
	"github.com/vidnav/vidnav/internal/transcript"
)

const (
	serviceName     = "vidnav"
	defaultJobLimit = 50
	maxJobLimit     = 500
	// maxJSONBody caps transcript and timestamp bodies.
	maxJSONBody = 16 << 20
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist(cfg.CORSOrigins))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))

	r.Post("/transcribe", transcribeHandler(cfg))
	r.Post("/detect-scenes", detectScenesHandler(cfg))
	r.Post("/process-video", processVideoHandler(cfg))

	r.Post("/generate-summary", generateSummaryHandler(cfg))
	r.Post("/generate-description", generateDescriptionHandler(cfg))
	r.Post("/generate-timestamps", generateTimestampsHandler(cfg))
	r.Post("/combine-timestamps", combineTimestampsHandler(cfg))
	r.Post("/export", exportHandler(cfg))

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", submitJobHandler(cfg))
		r.Get("/", listJobsHandler(cfg))
		r.Get("/{id}", getJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: serviceName,
			Version: version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := StatusResponse{State: "idle", Jobs: map[string]int{}, Transcriber: cfg.Transcriber}

		if cfg.Jobs != nil {
			if counts, err := cfg.Jobs.Counts(ctx); err == nil {
				resp.Jobs = counts
			}
			resp.JobsRunning = resp.Jobs[jobs.StatusRunning]
			if recent, err := cfg.Jobs.List(ctx, 10); err == nil {
				for _, j := range recent {
					if j.Status == jobs.StatusFailed {
						resp.LastError = j.Error
						break
					}
				}
			}
		}

		if cfg.Runner != nil {
			resp.Runner = &RunnerStatus{
				Running: cfg.Runner.IsRunning(),
				Paused:  cfg.Runner.IsPaused(),
				Active:  cfg.Runner.ActiveJobs(),
			}
		}

		switch {
		case resp.Runner != nil && resp.Runner.Paused:
			resp.State = "paused"
		case resp.JobsRunning > 0:
			resp.State = "processing"
		}

		if cfg.Doctor != nil {
			if caps, err := cfg.Doctor.Get(ctx); caps != nil {
				resp.Media = caps
				if err != nil && resp.LastError == "" {
					resp.LastError = err.Error()
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func transcribeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(cfg.Logger, r)
		defer cleanupForm(r)

		up, err := receiveVideo(w, r, cfg.TempDir, cfg.MaxUploadBytes)
		if err != nil {
			writeFailure(w, logger, "transcribe", err)
			return
		}
		defer os.Remove(up.Path)

		result, err := cfg.Processor.Transcribe(r.Context(), up.Path)
		if err != nil {
			writeFailure(w, logger, "transcribe", err)
			return
		}
		WriteJSON(w, http.StatusOK, TranscribeResponse{
			Transcript: result.Text,
			Segments:   result.Segments,
			Pauses:     result.Pauses,
			Backend:    result.Backend,
		})
	}
}

func detectScenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(cfg.Logger, r)
		defer cleanupForm(r)

		up, err := receiveVideo(w, r, cfg.TempDir, cfg.MaxUploadBytes)
		if err != nil {
			writeFailure(w, logger, "detect_scenes", err)
			return
		}
		defer os.Remove(up.Path)

		opts, err := sceneOptions(r, cfg.SceneDefaults)
		if err != nil {
			writeFailure(w, logger, "detect_scenes", badRequest(err.Error()))
			return
		}

		resp, err := cfg.Processor.Process(r.Context(), pipeline.Request{
			VideoPath: up.Path,
			Title:     r.FormValue("title"),
			Task:      pipeline.TaskScenes,
			Scenes:    opts,
		})
		if err != nil {
			writeFailure(w, logger, "detect_scenes", err)
			return
		}
		WriteJSON(w, http.StatusOK, DetectScenesResponse{
			VideoInfo:       resp.Video,
			Scenes:          resp.Scenes,
			SceneCount:      resp.SceneCount,
			SceneTimestamps: resp.Timestamps,
			Method:          string(opts.Strategy),
			UsedFallback:    resp.UsedFallback,
		})
	}
}

func processVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(cfg.Logger, r)
		defer cleanupForm(r)

		up, err := receiveVideo(w, r, cfg.TempDir, cfg.MaxUploadBytes)
		if err != nil {
			writeFailure(w, logger, "process_video", err)
			return
		}
		defer os.Remove(up.Path)

		req, err := processRequest(r, cfg, up.Path)
		if err != nil {
			writeFailure(w, logger, "process_video", badRequest(err.Error()))
			return
		}

		resp, err := cfg.Processor.Process(r.Context(), req)
		if err != nil {
			writeFailure(w, logger, "process_video", err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// processRequest reads type, title and scene options. An absent type means
// summary.
func processRequest(r *http.Request, cfg ServerConfig, videoPath string) (pipeline.Request, error) {
	taskName := r.FormValue("type")
	if taskName == "" {
		taskName = string(pipeline.TaskSummary)
	}
	task, err := pipeline.ParseTask(taskName)
	if err != nil {
		return pipeline.Request{}, err
	}
	opts, err := sceneOptions(r, cfg.SceneDefaults)
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		VideoPath: videoPath,
		Title:     strings.TrimSpace(r.FormValue("title")),
		Task:      task,
		Scenes:    opts,
	}, nil
}

// decodeText reads a TextRequest and rejects a blank transcript.
func decodeText(w http.ResponseWriter, r *http.Request) (TextRequest, transcript.Transcript, error) {
	var req TextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		return req, transcript.Transcript{}, badRequest("invalid request body")
	}
	tr := req.Transcript.Transcript()
	if tr.Empty() {
		return req, tr, badRequest("No transcript provided")
	}
	return req, tr, nil
}

func generateSummaryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(cfg.Logger, r)
		req, tr, err := decodeText(w, r)
		if err != nil {
			writeFailure(w, logger, "generate_summary", err)
			return
		}
		summary, err := cfg.Generator.Summary(r.Context(), tr, req.Title)
		if err != nil {
			writeFailure(w, logger, "generate_summary", err)
			return
		}
		WriteJSON(w, http.StatusOK, SummaryResponse{Summary: summary})
	}
}

func generateDescriptionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(cfg.Logger, r)
		req, tr, err := decodeText(w, r)
		if err != nil {
			writeFailure(w, logger, "generate_description", err)
			return
		}
		desc, err := cfg.Generator.Description(r.Context(), tr, req.Title)
		if err != nil {
			writeFailure(w, logger, "generate_description", err)
			return
		}
		WriteJSON(w, http.StatusOK, DescriptionResponse{Description: desc})
	}
}

func generateTimestampsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(cfg.Logger, r)
		req, tr, err := decodeText(w, r)
		if err != nil {
			writeFailure(w, logger, "generate_timestamps", err)
			return
		}
		list, err := cfg.Generator.GenerateTimestamps(r.Context(), tr, req.Title)
		if err != nil {
			writeFailure(w, logger, "generate_timestamps", err)
			return
		}
		if list == nil {
			list = []timestamps.Timestamp{}
		}
		WriteJSON(w, http.StatusOK, TimestampsResponse{Timestamps: list})
	}
}

func combineTimestampsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CombineRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		sceneRaw := req.SceneTimestamps
		if len(sceneRaw) == 0 {
			sceneRaw = req.Scenes
		}
		sceneTS := timestamps.Normalize(sceneRaw)
		generated := timestamps.Normalize(req.GPTTimestamps)
		if len(sceneTS) == 0 && len(generated) == 0 {
			WriteError(w, http.StatusBadRequest, "No timestamps provided", "BAD_REQUEST")
			return
		}

		combined := timestamps.Merge(sceneTS, generated, timestamps.DefaultMatchWindow)
		WriteJSON(w, http.StatusOK, TimestampsResponse{Timestamps: combined})
	}
}

func submitJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(cfg.Logger, r)
		defer cleanupForm(r)

		up, err := receiveVideo(w, r, cfg.UploadDir, cfg.MaxUploadBytes)
		if err != nil {
			writeFailure(w, logger, "submit_job", err)
			return
		}

		req, err := processRequest(r, cfg, up.Path)
		if err != nil {
			os.Remove(up.Path)
			writeFailure(w, logger, "submit_job", badRequest(err.Error()))
			return
		}
		task := req.Task
		if r.FormValue("type") == "" {
			task = pipeline.TaskAll
		}

		job, err := cfg.Jobs.Submit(r.Context(), up.Path, up.Filename, jobs.Params{
			Task:           string(task),
			Title:          req.Title,
			SceneMethod:    string(req.Scenes.Strategy),
			Threshold:      req.Scenes.Threshold,
			MinSceneLength: req.Scenes.MinSceneLength,
		})
		if err != nil {
			os.Remove(up.Path)
			writeFailure(w, logger, "submit_job", err)
			return
		}
		WriteJSON(w, http.StatusAccepted, SubmitJobResponse{JobID: job.ID, Status: job.Status})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultJobLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = min(n, maxJobLimit)
		}

		list, err := cfg.Jobs.List(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(list))}
		for i, j := range list {
			resp.Jobs[i] = JobToResponse(j, false)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Jobs.Get(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job, true))
	}
}

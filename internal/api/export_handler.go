package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vidnav/vidnav/internal/export"
	"github.com/vidnav/vidnav/internal/timestamps"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		format, err := export.ParseFormat(req.Format)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if req.FrameRate < 0 || req.Duration < 0 {
			WriteError(w, http.StatusBadRequest, "frame_rate and duration must not be negative", "BAD_REQUEST")
			return
		}

		list := timestamps.Normalize(req.Timestamps)
		if len(list) == 0 {
			WriteError(w, http.StatusBadRequest, "timestamps must not be empty", "BAD_REQUEST")
			return
		}

		body, err := export.Render(format, list, export.Options{
			Title:     req.Title,
			FrameRate: req.FrameRate,
			Duration:  req.Duration,
		})
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(req.Title, format)))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}

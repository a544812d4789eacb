package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vidnav/vidnav/internal/llm"
	"github.com/vidnav/vidnav/internal/pipeline"
	"github.com/vidnav/vidnav/internal/scenes"
)

// requestError carries the HTTP status and code for a rejected request.
type requestError struct {
	status int
	code   string
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(msg string) *requestError {
	return &requestError{status: http.StatusBadRequest, code: "BAD_REQUEST", msg: msg}
}

// writeFailure maps an error to a status and code. Internal errors are
// logged; everything else is the caller's to fix.
func writeFailure(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var reqErr *requestError
	var genErr *llm.GenerationError
	var detErr *scenes.DetectionError

	switch {
	case errors.As(err, &reqErr):
		WriteError(w, reqErr.status, reqErr.msg, reqErr.code)
	case errors.As(err, &genErr):
		logger.Warn("text generation failed", "op", op, "error", err)
		WriteError(w, http.StatusBadGateway, err.Error(), "GENERATION_FAILED")
	case errors.Is(err, pipeline.ErrNoGenerator):
		logger.Warn("text generation unavailable", "op", op)
		WriteError(w, http.StatusServiceUnavailable, err.Error(), "GENERATION_UNAVAILABLE")
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		WriteError(w, http.StatusUnprocessableEntity, "transcript is empty", "EMPTY_TRANSCRIPT")
	case errors.As(err, &detErr):
		logger.Warn("scene detection failed", "op", op, "error", err)
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "DETECTION_FAILED")
	case errors.Is(err, context.Canceled):
		logger.Info("request canceled", "op", op)
		WriteError(w, http.StatusServiceUnavailable, "request canceled", "CANCELED")
	default:
		logger.Error("request failed", "op", op, "error", err)
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

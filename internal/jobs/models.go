// Package jobs queues video processing requests in SQLite and runs them in
// the background.
package jobs

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TypeProcessVideo = "process_video"

	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	VideoPath string          `json:"-"`
	Filename  string          `json:"filename,omitempty"`
	Params    Params          `json:"params"`
	Result    json.RawMessage `json:"result,omitempty"`
	Progress  int             `json:"progress"`
	Stage     string          `json:"stage,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Params are the processing options captured when the job was submitted.
type Params struct {
	Task           string  `json:"type"`
	Title          string  `json:"title,omitempty"`
	SceneMethod    string  `json:"scene_method,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
	MinSceneLength float64 `json:"min_scene_length,omitempty"`
}

func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

func NewID() string {
	return uuid.NewString()
}

// VideoExtensions lists the upload formats accepted for processing.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}

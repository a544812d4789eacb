package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vidnav/vidnav/internal/jobs"
	"github.com/vidnav/vidnav/internal/media"
	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timestamps"
	"github.com/vidnav/vidnav/internal/transcript"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string              `json:"state"`
	LastError   string              `json:"last_error,omitempty"`
	Jobs        map[string]int      `json:"jobs"`
	JobsRunning int                 `json:"jobs_running"`
	Runner      *RunnerStatus       `json:"runner,omitempty"`
	Media       *media.Capabilities `json:"media,omitempty"`
	Transcriber string              `json:"transcriber,omitempty"`
}

type RunnerStatus struct {
	Running bool `json:"running"`
	Paused  bool `json:"paused"`
	Active  int  `json:"active"`
}

// TextRequest is the body of the transcript-only generation endpoints.
type TextRequest struct {
	Transcript TranscriptInput `json:"transcript"`
	Title      string `json:"title,omitempty"`
}

// TranscriptInput accepts a transcript as a flat string, as an array of
// {start, end, text} segments or as an object carrying text and segments.
type TranscriptInput struct {
	Text     string
	Segments []transcript.Segment
}

func (in *TranscriptInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*in = TranscriptInput{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*in = TranscriptInput{Text: text}
	case '[':
		var segments []transcript.Segment
		if err := json.Unmarshal(trimmed, &segments); err != nil {
			return err
		}
		*in = TranscriptInput{Segments: segments}
	case '{':
		var tr transcript.Transcript
		if err := json.Unmarshal(trimmed, &tr); err != nil {
			return err
		}
		*in = TranscriptInput{Text: tr.Text, Segments: tr.Segments}
	default:
		return fmt.Errorf("transcript must be a string, a segment list or an object")
	}
	return nil
}

func (in TranscriptInput) MarshalJSON() ([]byte, error) {
	if len(in.Segments) > 0 {
		return json.Marshal(in.Segments)
	}
	return json.Marshal(in.Text)
}

// Transcript prefers timed segments over flat text.
func (in TranscriptInput) Transcript() transcript.Transcript {
	if len(in.Segments) > 0 {
		return transcript.FromSegments(in.Segments)
	}
	return transcript.FromText(in.Text)
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

type DescriptionResponse struct {
	Description string `json:"description"`
}

type TimestampsResponse struct {
	Timestamps []timestamps.Timestamp `json:"timestamps"`
}

// CombineRequest accepts scene timestamps under scene_timestamps or the
// older scenes key.
type CombineRequest struct {
	SceneTimestamps []timestamps.RawTimestamp `json:"scene_timestamps"`
	Scenes          []timestamps.RawTimestamp `json:"scenes"`
	GPTTimestamps   []timestamps.RawTimestamp `json:"gpt_timestamps"`
	Title           string                    `json:"title,omitempty"`
}

type ExportRequest struct {
	Format     string                    `json:"format"`
	Title      string                    `json:"title,omitempty"`
	FrameRate  float64                   `json:"frame_rate,omitempty"`
	Duration   float64                   `json:"duration,omitempty"`
	Timestamps []timestamps.RawTimestamp `json:"timestamps"`
}

type TranscribeResponse struct {
	Transcript string               `json:"transcript"`
	Segments   []transcript.Segment `json:"segments"`
	Pauses     []transcript.Pause   `json:"pauses"`
	Backend    string               `json:"backend"`
}

type DetectScenesResponse struct {
	VideoInfo       media.VideoInfo        `json:"video_info"`
	Scenes          []scenes.Scene         `json:"scenes"`
	SceneCount      int                    `json:"scene_count"`
	SceneTimestamps []timestamps.Timestamp `json:"scene_timestamps"`
	Method          string                 `json:"method"`
	UsedFallback    bool                   `json:"scene_fallback,omitempty"`
}

type SubmitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Filename  string          `json:"filename,omitempty"`
	Params    jobs.Params     `json:"params"`
	Progress  int             `json:"progress"`
	Stage     string          `json:"stage,omitempty"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JobToResponse converts a job; the result is only included when
// withResult is set.
func JobToResponse(j *jobs.Job, withResult bool) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Filename:  j.Filename,
		Params:    j.Params,
		Progress:  j.Progress,
		Stage:     j.Stage,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
	if withResult {
		resp.Result = j.Result
	}
	return resp
}

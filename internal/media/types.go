// Package media wraps the ffmpeg and ffprobe binaries: probing, audio
// extraction, raw frame streaming for scene detection and a cached
// capability probe.
package media

import "time"

// DefaultFPS is assumed when the frame rate of a file cannot be read.
const DefaultFPS = 30.0

// VideoInfo is the subset of ffprobe output the pipeline relies on.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	FPS      float64 `json:"fps"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec,omitempty"`
	HasAudio bool    `json:"has_audio"`
}

// RunResult captures the outcome of a single ffmpeg/ffprobe invocation.
type RunResult struct {
	ExitCode   int
	StderrTail string
	Duration   time.Duration
}

func (r RunResult) IsSuccess() bool {
	return r.ExitCode == 0
}

// ToolInfo reports whether one external binary is usable.
type ToolInfo struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities is the result of a doctor probe.
type Capabilities struct {
	FFmpeg     ToolInfo  `json:"ffmpeg"`
	FFprobe    ToolInfo  `json:"ffprobe"`
	WhisperCPP *ToolInfo `json:"whispercpp,omitempty"`

	CanProbe        bool      `json:"can_probe"`
	CanExtractAudio bool      `json:"can_extract_audio"`
	CanDetectScenes bool      `json:"can_detect_scenes"`
	ProbedAt        time.Time `json:"probed_at"`
}

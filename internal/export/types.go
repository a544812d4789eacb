// Package export renders timestamp lists as chapter text, WebVTT chapter
// tracks and CMX3600 EDL marker lists for editors.
package export

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatChapters Format = "chapters"
	FormatWebVTT   Format = "webvtt"
	FormatEDL      Format = "edl"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatChapters:
		return FormatChapters, nil
	case FormatWebVTT, "vtt":
		return FormatWebVTT, nil
	case FormatEDL:
		return FormatEDL, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file extension, dot included.
func (f Format) Extension() string {
	switch f {
	case FormatWebVTT:
		return ".vtt"
	case FormatEDL:
		return ".edl"
	default:
		return ".txt"
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatWebVTT:
		return "text/vtt; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Marker is one navigation point with a resolved end, in seconds.
type Marker struct {
	Name  string
	Start float64
	End   float64
}

// Options carry what the timestamp list alone does not know.
type Options struct {
	Title     string
	FrameRate float64
	// Duration is the video length, used to close the last marker.
	Duration float64
}

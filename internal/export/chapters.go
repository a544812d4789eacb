package export

import (
	"fmt"
	"strings"

	"github.com/vidnav/vidnav/internal/timecode"
)

const introChapter = "Intro"

// Chapters renders "MM:SS description" lines. Video platforms require the
// first chapter at 00:00, so one is prepended when missing.
func Chapters(markers []Marker) string {
	var b strings.Builder
	if len(markers) > 0 && timecode.SecondsToMMSS(markers[0].Start) != "00:00" {
		fmt.Fprintf(&b, "00:00 %s\n", introChapter)
	}
	for _, m := range markers {
		fmt.Fprintf(&b, "%s %s\n", timecode.SecondsToMMSS(m.Start), oneLine(m.Name))
	}
	return b.String()
}

// WebVTT renders a chapter track with one cue per marker.
func WebVTT(markers []Marker) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for i, m := range markers {
		fmt.Fprintf(&b, "\n%d\n%s --> %s\n%s\n", i+1, vttTime(m.Start), vttTime(m.End), oneLine(m.Name))
	}
	return b.String()
}

func vttTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3600000
	m := ms / 60000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "Untitled"
	}
	return s
}

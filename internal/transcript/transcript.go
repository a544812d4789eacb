// Package transcript holds speech transcripts and extracts the text that
// corresponds to a time range of the video.
package transcript

import (
	"sort"
	"strings"
)

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is either flat text or text with per-segment timing. When
// segments are present Text is their concatenation.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
}

func FromText(text string) Transcript {
	return Transcript{Text: strings.TrimSpace(text)}
}

// FromSegments builds a timed transcript, dropping blank segments and
// sorting by start time.
func FromSegments(segments []Segment) Transcript {
	kept := make([]Segment, 0, len(segments))
	for _, s := range segments {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		if s.End < s.Start {
			s.End = s.Start
		}
		kept = append(kept, s)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return Transcript{Text: joinSegments(kept), Segments: kept}
}

// Timed reports whether the transcript carries usable segment timing.
func (t Transcript) Timed() bool {
	for _, s := range t.Segments {
		if s.End > 0 {
			return true
		}
	}
	return false
}

func (t Transcript) Empty() bool {
	return strings.TrimSpace(t.Text) == "" && len(t.Segments) == 0
}

// Pause is a silent gap between two consecutive segments.
type Pause struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// DetectPauses returns gaps of at least minGap seconds between segments.
func DetectPauses(segments []Segment, minGap float64) []Pause {
	pauses := []Pause{}
	for i := 1; i < len(segments); i++ {
		gap := segments[i].Start - segments[i-1].End
		if gap >= minGap {
			pauses = append(pauses, Pause{
				Start:    segments[i-1].End,
				End:      segments[i].Start,
				Duration: gap,
			})
		}
	}
	return pauses
}

func joinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

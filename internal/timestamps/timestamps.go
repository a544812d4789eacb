// Package timestamps merges scene-derived and generated timestamps into the
// navigable list returned to callers.
package timestamps

import (
	"fmt"
	"strings"

	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timecode"
)

// Timestamp is one entry of the navigable list. SceneInfo, Duration and
// StartTime are only set for entries derived from a detected scene.
type Timestamp struct {
	TimeStart   string   `json:"time_start"`
	Description string   `json:"description"`
	SceneInfo   string   `json:"scene_info,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	StartTime   *float64 `json:"start_time,omitempty"`
}

// Seconds returns the precise start when known, otherwise the parsed
// TimeStart. Unparsable times sort first.
func (t Timestamp) Seconds() float64 {
	if t.StartTime != nil {
		return *t.StartTime
	}
	secs, err := timecode.Parse(t.TimeStart)
	if err != nil {
		return 0
	}
	return secs
}

// RawTimestamp is the wire shape accepted from callers, where older clients
// send "time" instead of "time_start".
type RawTimestamp struct {
	Time        string   `json:"time,omitempty"`
	TimeStart   string   `json:"time_start,omitempty"`
	Description string   `json:"description"`
	SceneInfo   string   `json:"scene_info,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	StartTime   *float64 `json:"start_time,omitempty"`
}

// Normalize converts wire entries to Timestamps. time_start wins over the
// legacy time field; times are re-rendered as MM:SS. Entries with no
// parsable time are dropped when StartTime is absent.
func Normalize(raw []RawTimestamp) []Timestamp {
	out := make([]Timestamp, 0, len(raw))
	for _, r := range raw {
		ts := Timestamp{
			Description: strings.TrimSpace(r.Description),
			SceneInfo:   r.SceneInfo,
			Duration:    r.Duration,
			StartTime:   r.StartTime,
		}

		t := r.TimeStart
		if t == "" {
			t = r.Time
		}
		if canonical, err := timecode.Normalize(t); err == nil {
			ts.TimeStart = canonical
		} else if r.StartTime != nil {
			ts.TimeStart = timecode.SecondsToMMSS(*r.StartTime)
		} else {
			continue
		}
		out = append(out, ts)
	}
	return out
}

// FromScenes renders scenes as timestamps carrying their provenance.
func FromScenes(list []scenes.Scene) []Timestamp {
	out := make([]Timestamp, 0, len(list))
	for _, s := range list {
		start := s.StartSeconds
		duration := s.Duration()
		out = append(out, Timestamp{
			TimeStart:   timecode.SecondsToMMSS(start),
			Description: s.Label,
			SceneInfo:   fmt.Sprintf("Scene %d (%s - %s)", s.Index+1, timecode.SecondsToMMSS(s.StartSeconds), timecode.SecondsToMMSS(s.EndSeconds)),
			Duration:    &duration,
			StartTime:   &start,
		})
	}
	return out
}

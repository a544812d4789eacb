package export

import (
	"sort"

	"github.com/vidnav/vidnav/internal/timestamps"
)

// defaultLastMarker is the length given to a final marker when neither the
// entry nor the video carries a duration.
const defaultLastMarker = 10.0

// Markers orders timestamps by start and closes each at the next start.
// The last one ends at its own duration, the video end or
// defaultLastMarker after it, in that order of preference.
func Markers(list []timestamps.Timestamp, videoDuration float64) []Marker {
	sorted := append([]timestamps.Timestamp(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seconds() < sorted[j].Seconds() })

	out := make([]Marker, 0, len(sorted))
	for i, ts := range sorted {
		m := Marker{Name: ts.Description, Start: ts.Seconds()}
		switch {
		case i+1 < len(sorted):
			m.End = sorted[i+1].Seconds()
		case ts.Duration != nil && *ts.Duration > 0:
			m.End = m.Start + *ts.Duration
		case videoDuration > m.Start:
			m.End = videoDuration
		default:
			m.End = m.Start + defaultLastMarker
		}
		if m.End < m.Start {
			m.End = m.Start
		}
		out = append(out, m)
	}
	return out
}

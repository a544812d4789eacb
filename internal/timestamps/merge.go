package timestamps

import (
	"math"
	"sort"
	"time"

	"github.com/vidnav/vidnav/internal/timecode"
)

// DefaultMatchWindow is how far a generated timestamp may sit from a scene
// boundary and still lend it its description.
const DefaultMatchWindow = 10 * time.Second

// Merge combines scene timestamps with generated ones. Scene times are kept
// as the backbone; each takes the description of the nearest generated
// entry within window, the earliest listed entry winning ties. With only
// one list non-empty it is passed through. The result is deduplicated on
// (time_start, description) and sorted by time.
func Merge(sceneTS, generated []Timestamp, window time.Duration) []Timestamp {
	var merged []Timestamp
	switch {
	case len(sceneTS) > 0 && len(generated) > 0:
		limit := window.Seconds()
		merged = make([]Timestamp, 0, len(sceneTS))
		for _, st := range sceneTS {
			out := st
			if g, ok := nearest(st.Seconds(), generated, limit); ok && g.Description != "" {
				out.Description = g.Description
			}
			merged = append(merged, out)
		}
	case len(sceneTS) > 0:
		merged = append([]Timestamp(nil), sceneTS...)
	default:
		merged = append([]Timestamp(nil), generated...)
	}

	return sortByTime(dedupe(merged))
}

func nearest(at float64, candidates []Timestamp, limit float64) (Timestamp, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range candidates {
		d := math.Abs(c.Seconds() - at)
		if d <= limit && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Timestamp{}, false
	}
	return candidates[best], true
}

func dedupe(list []Timestamp) []Timestamp {
	type key struct{ time, desc string }
	seen := make(map[key]struct{}, len(list))
	out := make([]Timestamp, 0, len(list))
	for _, ts := range list {
		k := key{ts.TimeStart, ts.Description}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, ts)
	}
	return out
}

// sortByTime orders by the parsed TimeStart so "100:00" sorts after "99:59".
// Entries with equal times keep their relative order.
func sortByTime(list []Timestamp) []Timestamp {
	sort.SliceStable(list, func(i, j int) bool {
		return timeStartSeconds(list[i]) < timeStartSeconds(list[j])
	})
	return list
}

func timeStartSeconds(ts Timestamp) float64 {
	secs, err := timecode.Parse(ts.TimeStart)
	if err != nil {
		return ts.Seconds()
	}
	return secs
}

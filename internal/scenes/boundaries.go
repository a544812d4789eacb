package scenes

import (
	"math"
	"sort"
)

// fromBoundaries turns candidate cut times into contiguous scenes spanning
// [start, end]. A cut closer than minLen to the previous kept cut is
// suppressed, and a trailing remainder shorter than minLen is folded into
// the scene before it.
func fromBoundaries(start float64, cuts []float64, end, minLen float64) []Scene {
	if end <= start {
		return nil
	}

	sorted := append([]float64(nil), cuts...)
	sort.Float64s(sorted)

	kept := []float64{start}
	for _, c := range sorted {
		if math.IsNaN(c) || c <= start || c >= end {
			continue
		}
		if c-kept[len(kept)-1] < minLen {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) > 1 && end-kept[len(kept)-1] < minLen {
		kept = kept[:len(kept)-1]
	}
	kept = append(kept, end)

	out := make([]Scene, 0, len(kept)-1)
	for i := 0; i < len(kept)-1; i++ {
		out = append(out, Scene{
			Index:        i,
			StartSeconds: kept[i],
			EndSeconds:   kept[i+1],
			Label:        placeholderLabel(i),
		})
	}
	return out
}

// FixedInterval builds synthetic scenes of the given width covering
// [0, duration]. It is the degrade path when frame analysis fails.
func FixedInterval(duration, interval, minLen float64) []Scene {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return []Scene{}
	}
	if interval <= 0 {
		interval = FallbackInterval
	}
	var cuts []float64
	for t := interval; t < duration; t += interval {
		cuts = append(cuts, t)
	}
	return fromBoundaries(0, cuts, duration, minLen)
}

package scenes

import "math"

const (
	adaptiveWindow       = 2
	adaptiveMinContent   = 15.0
	adaptiveRatioCeiling = 255.0
)

// frameStats accumulates per-frame metrics from rgb24 frames. Only the
// previous frame's HSV planes are retained.
type frameStats struct {
	content []float64 // mean HSV delta against the previous frame; 0 for the first
	luma    []float64 // mean channel intensity

	prevHSV []uint8
	curHSV  []uint8
}

func (fs *frameStats) add(rgb []byte) {
	pixels := len(rgb) / 3
	if pixels == 0 {
		fs.content = append(fs.content, 0)
		fs.luma = append(fs.luma, 0)
		return
	}

	if cap(fs.curHSV) < pixels*3 {
		fs.curHSV = make([]uint8, pixels*3)
	}
	fs.curHSV = fs.curHSV[:pixels*3]

	var sum uint64
	for p := 0; p < pixels; p++ {
		r, g, b := rgb[p*3], rgb[p*3+1], rgb[p*3+2]
		sum += uint64(r) + uint64(g) + uint64(b)
		h, s, v := rgbToHSV(r, g, b)
		fs.curHSV[p*3], fs.curHSV[p*3+1], fs.curHSV[p*3+2] = h, s, v
	}
	fs.luma = append(fs.luma, float64(sum)/float64(pixels*3))

	if len(fs.prevHSV) != len(fs.curHSV) {
		fs.content = append(fs.content, 0)
	} else {
		var dh, ds, dv uint64
		for p := 0; p < pixels; p++ {
			dh += absDiff(fs.curHSV[p*3], fs.prevHSV[p*3])
			ds += absDiff(fs.curHSV[p*3+1], fs.prevHSV[p*3+1])
			dv += absDiff(fs.curHSV[p*3+2], fs.prevHSV[p*3+2])
		}
		n := float64(pixels)
		fs.content = append(fs.content, (float64(dh)/n+float64(ds)/n+float64(dv)/n)/3)
	}

	fs.prevHSV, fs.curHSV = fs.curHSV, fs.prevHSV
}

// rgbToHSV uses the 8-bit OpenCV ranges: H in [0,180), S and V in [0,255].
func rgbToHSV(r, g, b uint8) (uint8, uint8, uint8) {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	v := maxC
	if maxC == 0 {
		return 0, 0, 0
	}
	delta := float64(maxC) - float64(minC)
	s := uint8(math.Round(delta * 255 / float64(maxC)))
	if delta == 0 {
		return 0, s, v
	}

	var h float64
	switch maxC {
	case r:
		h = 60 * (float64(g) - float64(b)) / delta
	case g:
		h = 120 + 60*(float64(b)-float64(r))/delta
	default:
		h = 240 + 60*(float64(r)-float64(g))/delta
	}
	if h < 0 {
		h += 360
	}
	return uint8(math.Mod(math.Round(h/2), 180)), s, v
}

func absDiff(a, b uint8) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

// contentCuts places a cut on every frame whose HSV delta reaches threshold.
func contentCuts(content []float64, threshold float64) []int {
	var cuts []int
	for i := 1; i < len(content); i++ {
		if content[i] >= threshold {
			cuts = append(cuts, i)
		}
	}
	return cuts
}

// adaptiveCuts compares each frame's delta to the mean of its neighbours
// within the window. Frames without a full window on both sides are skipped.
func adaptiveCuts(content []float64, threshold, minContent float64, window int) []int {
	if window < 1 {
		window = adaptiveWindow
	}
	var cuts []int
	for i := max(1, window); i+window < len(content); i++ {
		var sum float64
		for j := i - window; j <= i+window; j++ {
			if j != i {
				sum += content[j]
			}
		}
		avg := sum / float64(2*window)

		var ratio float64
		switch {
		case avg > 1e-5:
			ratio = math.Min(content[i]/avg, adaptiveRatioCeiling)
		case content[i] >= minContent:
			ratio = adaptiveRatioCeiling
		}

		if ratio >= threshold && content[i] >= minContent {
			cuts = append(cuts, i)
		}
	}
	return cuts
}

// lumaCuts detects fades through black: a cut is placed midway between the
// frame where intensity drops below threshold and the frame where it
// recovers. A video that starts dark gets no cut for its first fade-in.
func lumaCuts(luma []float64, threshold float64) []int {
	if len(luma) == 0 {
		return nil
	}
	var cuts []int
	dark := luma[0] < threshold
	fadeOut := 0
	for i := 1; i < len(luma); i++ {
		switch {
		case !dark && luma[i] < threshold:
			dark = true
			fadeOut = i
		case dark && luma[i] >= threshold:
			dark = false
			if fadeOut > 0 {
				cuts = append(cuts, fadeOut+(i-fadeOut)/2)
			}
		}
	}
	return cuts
}

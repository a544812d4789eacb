package transcript

import "strings"

const (
	// CharsPerSecond assumes ~150 words per minute at ~5 characters per word.
	CharsPerSecond = 150.0 * 5.0 / 60.0

	DefaultMinChars       = 50
	DefaultContextSeconds = 25.0
)

// Window is the text believed to correspond to one time range.
type Window struct {
	Text          string `json:"text"`
	ContextBefore string `json:"context_before,omitempty"`
	ContextAfter  string `json:"context_after,omitempty"`
}

type Windower struct {
	CharsPerSecond float64
	MinChars       int
	ContextSeconds float64
}

func NewWindower() Windower {
	return Windower{
		CharsPerSecond: CharsPerSecond,
		MinChars:       DefaultMinChars,
		ContextSeconds: DefaultContextSeconds,
	}
}

// Extract returns the window for [start, end) together with flanking
// context. It never fails; missing content yields empty strings.
func (w Windower) Extract(tr Transcript, start, end float64) Window {
	if end < start {
		start, end = end, start
	}
	win := Window{Text: w.text(tr, start, end, true)}
	if w.ContextSeconds > 0 {
		if start > 0 {
			win.ContextBefore = w.text(tr, max(0, start-w.ContextSeconds), start, false)
		}
		win.ContextAfter = w.text(tr, end, end+w.ContextSeconds, false)
	}
	return win
}

func (w Windower) text(tr Transcript, start, end float64, widen bool) string {
	if end <= start {
		return ""
	}
	if tr.Timed() {
		return exactText(tr.Segments, start, end)
	}
	return w.approxText(tr.Text, start, end, widen)
}

func exactText(segments []Segment, start, end float64) string {
	parts := make([]string, 0)
	for _, s := range segments {
		if s.End > start && s.Start < end {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// approxText maps seconds to rune offsets with the assumed speaking rate.
// Short slices of the primary window are widened symmetrically to MinChars.
func (w Windower) approxText(text string, start, end float64, widen bool) string {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n == 0 {
		return ""
	}
	rate := w.CharsPerSecond
	if rate <= 0 {
		rate = CharsPerSecond
	}

	lo := clamp(int(start*rate), 0, n)
	hi := clamp(int(end*rate), 0, n)

	if widen && hi-lo < w.MinChars {
		missing := w.MinChars - (hi - lo)
		lo -= missing / 2
		hi += missing - missing/2
		if lo < 0 {
			hi -= lo
			lo = 0
		}
		if hi > n {
			lo -= hi - n
			hi = n
		}
		lo = clamp(lo, 0, n)
	}
	if hi <= lo {
		return ""
	}
	return strings.TrimSpace(string(runes[lo:hi]))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

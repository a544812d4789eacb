package transcript

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func timedTranscript() Transcript {
	return FromSegments([]Segment{
		{Start: 0, End: 4, Text: " Welcome to the course."},
		{Start: 4, End: 9, Text: "Today we cover goroutines."},
		{Start: 9, End: 15, Text: "Channels connect them."},
		{Start: 40, End: 50, Text: "Finally, select statements."},
		{Start: 51, End: 52, Text: "   "},
	})
}

func TestExtract_ExactMode(t *testing.T) {
	w := NewWindower()
	tests := []struct {
		name       string
		start, end float64
		want       string
	}{
		{name: "overlap two", start: 3, end: 10, want: "Welcome to the course. Today we cover goroutines. Channels connect them."},
		{name: "end exclusive", start: 0, end: 4, want: "Welcome to the course."},
		{name: "start boundary excluded", start: 4, end: 5, want: "Today we cover goroutines."},
		{name: "gap", start: 20, end: 30, want: ""},
		{name: "late", start: 45, end: 60, want: "Finally, select statements."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := w.Extract(timedTranscript(), tc.start, tc.end)
			if got.Text != tc.want {
				t.Fatalf("Extract(%v,%v).Text = %q, want %q", tc.start, tc.end, got.Text, tc.want)
			}
		})
	}
}

func TestExtract_ExactContext(t *testing.T) {
	got := NewWindower().Extract(timedTranscript(), 30, 40)
	if got.ContextBefore != "Today we cover goroutines. Channels connect them." {
		t.Fatalf("ContextBefore = %q", got.ContextBefore)
	}
	if got.ContextAfter != "Finally, select statements." {
		t.Fatalf("ContextAfter = %q", got.ContextAfter)
	}

	first := NewWindower().Extract(timedTranscript(), 0, 4)
	if first.ContextBefore != "" {
		t.Fatalf("ContextBefore at start = %q, want empty", first.ContextBefore)
	}
}

func TestExtract_ApproximateMode(t *testing.T) {
	text := strings.Repeat("abcdefghij", 100) // 1000 runes, 80s at 12.5 chars/s
	tr := FromText(text)
	w := NewWindower()

	got := w.Extract(tr, 8, 16)
	if len(got.Text) != 100 {
		t.Fatalf("len(Text) = %d, want 100", len(got.Text))
	}
	if got.Text != text[100:200] {
		t.Fatalf("Text = %q, want slice [100:200]", got.Text)
	}
	if len(got.ContextBefore) != 100 {
		t.Fatalf("len(ContextBefore) = %d, want 100", len(got.ContextBefore))
	}
}

func TestExtract_ApproximateWidensShortWindow(t *testing.T) {
	text := strings.Repeat("x", 400)
	w := NewWindower()

	got := w.Extract(FromText(text), 10, 11)
	if len(got.Text) != DefaultMinChars {
		t.Fatalf("len(Text) = %d, want %d", len(got.Text), DefaultMinChars)
	}

	atStart := w.Extract(FromText(text), 0, 0.5)
	if len(atStart.Text) != DefaultMinChars {
		t.Fatalf("len(Text) at start = %d, want %d", len(atStart.Text), DefaultMinChars)
	}

	beyond := w.Extract(FromText(text), 500, 510)
	if len(beyond.Text) != DefaultMinChars {
		t.Fatalf("len(Text) past end = %d, want %d", len(beyond.Text), DefaultMinChars)
	}
}

func TestExtract_ShortTranscriptClamped(t *testing.T) {
	got := NewWindower().Extract(FromText("short text"), 0, 100)
	if got.Text != "short text" {
		t.Fatalf("Text = %q, want whole transcript", got.Text)
	}
}

func TestExtract_RuneSafe(t *testing.T) {
	text := strings.Repeat("é", 300)
	got := NewWindower().Extract(FromText(text), 2, 6)
	if !utf8.ValidString(got.Text) {
		t.Fatalf("Text is not valid UTF-8: %q", got.Text)
	}
	if n := utf8.RuneCountInString(got.Text); n != 50 {
		t.Fatalf("rune count = %d, want 50", n)
	}
}

func TestExtract_Empty(t *testing.T) {
	got := NewWindower().Extract(Transcript{}, 0, 10)
	if got.Text != "" || got.ContextBefore != "" || got.ContextAfter != "" {
		t.Fatalf("Extract(empty) = %+v, want zero window", got)
	}
}

func TestDetectPauses(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2, Text: "a"},
		{Start: 2.5, End: 4, Text: "b"},
		{Start: 5, End: 6, Text: "c"},
		{Start: 9, End: 10, Text: "d"},
	}
	got := DetectPauses(segs, 1.0)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[1].Start != 6 || got[1].End != 9 || got[1].Duration != 3 {
		t.Fatalf("pause = %+v, want 6..9", got[1])
	}
}

func TestFromSegments(t *testing.T) {
	tr := FromSegments([]Segment{
		{Start: 5, End: 6, Text: "second"},
		{Start: 0, End: 1, Text: " first "},
		{Start: 7, End: 8, Text: ""},
	})
	if tr.Text != "first second" {
		t.Fatalf("Text = %q, want %q", tr.Text, "first second")
	}
	if len(tr.Segments) != 2 || !tr.Timed() {
		t.Fatalf("Segments = %+v, want 2 timed segments", tr.Segments)
	}
}

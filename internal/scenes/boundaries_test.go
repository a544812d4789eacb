package scenes

import "testing"

func scenesFrom(bounds ...float64) []Scene {
	out := make([]Scene, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		out = append(out, Scene{Index: i, StartSeconds: bounds[i], EndSeconds: bounds[i+1], Label: placeholderLabel(i)})
	}
	return out
}

func TestFromBoundaries_TrailingScene(t *testing.T) {
	cuts := []float64{5, 40}

	kept := fromBoundaries(0, cuts, 42, 1.0)
	if len(kept) != 3 {
		t.Fatalf("fromBoundaries(min=1.0) len = %d, want 3", len(kept))
	}
	if kept[2].StartSeconds != 40 || kept[2].EndSeconds != 42 {
		t.Fatalf("third scene = %+v, want [40,42]", kept[2])
	}

	merged := fromBoundaries(0, cuts, 42, 3.0)
	if len(merged) != 2 {
		t.Fatalf("fromBoundaries(min=3.0) len = %d, want 2", len(merged))
	}
	if merged[1].StartSeconds != 5 || merged[1].EndSeconds != 42 {
		t.Fatalf("last scene = %+v, want [5,42]", merged[1])
	}
}

func TestFromBoundaries_LeadingShortSceneMergesForward(t *testing.T) {
	got := fromBoundaries(0, []float64{0.4, 10}, 20, 1.0)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].EndSeconds != 10 {
		t.Fatalf("first scene end = %v, want 10", got[0].EndSeconds)
	}
}

func TestFromBoundaries_Invariants(t *testing.T) {
	cuts := []float64{31, 2, 2, 3.5, 17, 17.2, 55, -4, 80}
	minLen := 1.5
	got := fromBoundaries(0, cuts, 60, minLen)

	if len(got) == 0 {
		t.Fatal("expected scenes")
	}
	if got[0].StartSeconds != 0 || got[len(got)-1].EndSeconds != 60 {
		t.Fatalf("scenes do not span [0,60]: %+v", got)
	}
	for i, s := range got {
		if s.Index != i {
			t.Errorf("scene %d has index %d", i, s.Index)
		}
		if s.Duration() < minLen {
			t.Errorf("scene %d duration %v below min %v", i, s.Duration(), minLen)
		}
		if i > 0 {
			if s.StartSeconds <= got[i-1].StartSeconds {
				t.Errorf("scene %d start %v not increasing", i, s.StartSeconds)
			}
			if s.StartSeconds != got[i-1].EndSeconds {
				t.Errorf("scene %d not contiguous with previous", i)
			}
		}
	}
}

func TestFromBoundaries_ShortVideo(t *testing.T) {
	got := fromBoundaries(0, []float64{0.2}, 0.5, 1.0)
	if len(got) != 1 || got[0].EndSeconds != 0.5 {
		t.Fatalf("got %+v, want single [0,0.5] scene", got)
	}
	if got[0].Label != "Scene 1" {
		t.Fatalf("label = %q, want %q", got[0].Label, "Scene 1")
	}
}

func TestFixedInterval(t *testing.T) {
	got := FixedInterval(25, 10, 1.0)
	want := [][2]float64{{0, 10}, {10, 20}, {20, 25}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].StartSeconds != w[0] || got[i].EndSeconds != w[1] {
			t.Errorf("scene %d = [%v,%v], want %v", i, got[i].StartSeconds, got[i].EndSeconds, w)
		}
	}

	if got := FixedInterval(0, 10, 1.0); len(got) != 0 {
		t.Fatalf("FixedInterval(0) = %+v, want empty", got)
	}
}

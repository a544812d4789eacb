package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestExport_Chapters(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(jsonRequest(t, "/export", map[string]any{
		"format": "chapters",
		"title":  "Go basics",
		"timestamps": []map[string]string{
			{"time_start": "01:30", "description": "Variables"},
			{"time": "0:05", "description": "Installing Go"},
		},
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	want := "00:00 Intro\n00:05 Installing Go\n01:30 Variables\n"
	if rr.Body.String() != want {
		t.Fatalf("body = %q, want %q", rr.Body.String(), want)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="Go basics.txt"`) {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}

func TestExport_EDLUsesFrameRate(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(jsonRequest(t, "/export", map[string]any{
		"format":     "edl",
		"title":      "Lecture",
		"frame_rate": 25,
		"duration":   10,
		"timestamps": []map[string]string{{"time_start": "00:00", "description": "Start"}},
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "TITLE: Lecture") || !strings.Contains(body, "00:00:00:00 00:00:10:00") {
		t.Fatalf("EDL = %q", body)
	}
}

func TestExport_WebVTTContentType(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(jsonRequest(t, "/export", map[string]any{
		"format":     "vtt",
		"timestamps": []map[string]string{{"time_start": "00:00", "description": "Start"}},
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/vtt") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "WEBVTT\n") {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "unknown format", body: map[string]any{"format": "pdf", "timestamps": []map[string]string{{"time_start": "00:00", "description": "x"}}}},
		{name: "no timestamps", body: map[string]any{"format": "chapters"}},
		{name: "unparsable times", body: map[string]any{"timestamps": []map[string]string{{"time_start": "soon", "description": "x"}}}},
		{name: "negative frame rate", body: map[string]any{"frame_rate": -1, "timestamps": []map[string]string{{"time_start": "00:00", "description": "x"}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			assertErrorCode(t, env.do(jsonRequest(t, "/export", tc.body)), http.StatusBadRequest, "BAD_REQUEST")
		})
	}
}

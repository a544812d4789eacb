package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
)

type fakeAudio struct {
	resp openai.AudioResponse
	err  error
	req  openai.AudioRequest
}

func (f *fakeAudio) CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.req = req
	return f.resp, f.err
}

func verboseResponse(t *testing.T, raw string) openai.AudioResponse {
	t.Helper()
	var resp openai.AudioResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	return resp
}

func TestOpenAI_Transcribe_Segments(t *testing.T) {
	fake := &fakeAudio{resp: verboseResponse(t, `{
		"text": "ignored when segments exist",
		"segments": [
			{"id": 0, "start": 5, "end": 9, "text": " second "},
			{"id": 1, "start": 0, "end": 4, "text": "first"},
			{"id": 2, "start": 9, "end": 10, "text": "   "}
		]
	}`)}

	o := NewOpenAIWithClient(fake, OpenAIConfig{})
	tr, err := o.Transcribe(context.Background(), "/tmp/audio.wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if fake.req.Format != openai.AudioResponseFormatVerboseJSON || fake.req.Model != openai.Whisper1 {
		t.Fatalf("request = %+v", fake.req)
	}
	if len(tr.Segments) != 2 || tr.Segments[0].Text != "first" || tr.Text != "first second" {
		t.Fatalf("transcript = %+v", tr)
	}
}

func TestOpenAI_Transcribe_TextOnly(t *testing.T) {
	fake := &fakeAudio{}
	fake.resp.Text = "  just text  "
	tr, err := NewOpenAIWithClient(fake, OpenAIConfig{}).Transcribe(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if tr.Text != "just text" || tr.Timed() {
		t.Fatalf("transcript = %+v", tr)
	}
}

func TestOpenAI_Transcribe_Error(t *testing.T) {
	fake := &fakeAudio{err: errors.New("rate limited")}
	if _, err := NewOpenAIWithClient(fake, OpenAIConfig{}).Transcribe(context.Background(), "a.wav"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestParseWhisperJSON(t *testing.T) {
	data := []byte(`{
		"transcription": [
			{"timestamps": {"from": "00:00:00,000", "to": "00:00:02,500"}, "offsets": {"from": 0, "to": 2500}, "text": " Hello there."},
			{"timestamps": {"from": "00:00:04,000", "to": "00:00:06,000"}, "offsets": {"from": 4000, "to": 6000}, "text": " General Kenobi."}
		]
	}`)
	tr, err := parseWhisperJSON(data)
	if err != nil {
		t.Fatalf("parseWhisperJSON() error = %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(tr.Segments))
	}
	if tr.Segments[0].End != 2.5 || tr.Segments[1].Start != 4 {
		t.Fatalf("segments = %+v", tr.Segments)
	}
	if tr.Text != "Hello there. General Kenobi." {
		t.Fatalf("Text = %q", tr.Text)
	}
}

func TestParseWhisperJSON_Invalid(t *testing.T) {
	if _, err := parseWhisperJSON([]byte("{")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", BackendOpenAI, false},
		{"OpenAI", BackendOpenAI, false},
		{"whisper.cpp", BackendWhisperCPP, false},
		{"whispercpp", BackendWhisperCPP, false},
		{"vosk", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBackend(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNewWhisperCPP_RequiresPaths(t *testing.T) {
	if _, err := NewWhisperCPP("", "model.bin", nil); err == nil {
		t.Fatal("expected error without binary")
	}
}

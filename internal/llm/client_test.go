package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/vidnav/vidnav/internal/cache"
	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/transcript"
)

type fakeReply struct {
	content string
	err     error
}

type fakeChat struct {
	replies []fakeReply
	calls   []openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls = append(f.calls, req)
	i := len(f.calls) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	r := f.replies[i]
	if r.err != nil {
		return openai.ChatCompletionResponse{}, r.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: r.content}}},
	}, nil
}

// failNTimes fails the first n calls with a transient error.
func failNTimes(n int, content string) *fakeChat {
	f := &fakeChat{}
	for i := 0; i < n; i++ {
		f.replies = append(f.replies, fakeReply{err: &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"}})
	}
	f.replies = append(f.replies, fakeReply{content: content})
	return f
}

func testPolicy(attempts int, slept *[]time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		Backoff:     FixedBackoff(500 * time.Millisecond),
		sleep: func(ctx context.Context, d time.Duration) error {
			*slept = append(*slept, d)
			return nil
		},
	}
}

func TestComplete_RetriesThenSucceeds(t *testing.T) {
	var slept []time.Duration
	chat := failNTimes(1, "A concise summary.")
	c := NewWithCompleter(chat, Config{Retry: testPolicy(2, &slept)})

	got, err := c.GenerateSummary(context.Background(), "transcript", "")
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if got != "A concise summary." {
		t.Fatalf("GenerateSummary() = %q", got)
	}
	if len(chat.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(chat.calls))
	}
	if len(slept) != 1 || slept[0] != 500*time.Millisecond {
		t.Fatalf("slept = %v, want one 500ms backoff", slept)
	}
}

func TestComplete_ExhaustedRetriesIsGenerationError(t *testing.T) {
	var slept []time.Duration
	chat := failNTimes(5, "never reached")
	c := NewWithCompleter(chat, Config{Retry: testPolicy(2, &slept)})

	_, err := c.GenerateDescription(context.Background(), "transcript", "")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}
	if genErr.Attempts != 2 || genErr.Op != "generate_description" {
		t.Fatalf("GenerationError = %+v", genErr)
	}
	if len(chat.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(chat.calls))
	}
}

func TestComplete_ClientErrorNotRetried(t *testing.T) {
	var slept []time.Duration
	chat := &fakeChat{replies: []fakeReply{{err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}}}
	c := NewWithCompleter(chat, Config{Retry: testPolicy(3, &slept)})

	_, err := c.GenerateSummary(context.Background(), "transcript", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(chat.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(chat.calls))
	}
}

func TestComplete_ModelFallback(t *testing.T) {
	var slept []time.Duration
	chat := &fakeChat{replies: []fakeReply{
		{err: &openai.APIError{HTTPStatusCode: http.StatusNotFound, Code: "model_not_found", Message: "no such model"}},
		{content: "Fallback answer"},
	}}
	c := NewWithCompleter(chat, Config{Model: "gpt-4", FallbackModel: "gpt-3.5-turbo", Retry: testPolicy(1, &slept)})

	got, err := c.GenerateSummary(context.Background(), "transcript", "")
	if err != nil {
		t.Fatalf("GenerateSummary() error = %v", err)
	}
	if got != "Fallback answer" {
		t.Fatalf("GenerateSummary() = %q", got)
	}
	if chat.calls[0].Model != "gpt-4" || chat.calls[1].Model != "gpt-3.5-turbo" {
		t.Fatalf("models = %q, %q", chat.calls[0].Model, chat.calls[1].Model)
	}
}

func TestComplete_CacheHit(t *testing.T) {
	chat := &fakeChat{replies: []fakeReply{{content: "Cached summary"}}}
	c := NewWithCompleter(chat, Config{Cache: cache.NewMemory(10)})

	for i := 0; i < 3; i++ {
		got, err := c.GenerateSummary(context.Background(), "same transcript", "t")
		if err != nil || got != "Cached summary" {
			t.Fatalf("GenerateSummary() = %q, %v", got, err)
		}
	}
	if len(chat.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(chat.calls))
	}
}

func TestSelectMainScenes_UnparsableAnswerNotCached(t *testing.T) {
	chat := &fakeChat{replies: []fakeReply{
		{content: "all of them look fine"},
		{content: `{"indices": [0]}`},
	}}
	c := NewWithCompleter(chat, Config{Cache: cache.NewMemory(10)})
	summaries := scenes.Summarize([]scenes.Scene{{Index: 0, StartSeconds: 0, EndSeconds: 10}})

	if _, err := c.SelectMainScenes(context.Background(), summaries, "Go basics"); err == nil {
		t.Fatal("SelectMainScenes() expected parse error")
	}
	for i := 0; i < 2; i++ {
		got, err := c.SelectMainScenes(context.Background(), summaries, "Go basics")
		if err != nil {
			t.Fatalf("SelectMainScenes() error = %v", err)
		}
		if len(got) != 1 || got[0] != 0 {
			t.Fatalf("SelectMainScenes() = %v", got)
		}
	}
	if len(chat.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(chat.calls))
	}
}

func TestComplete_RedactsAPIKey(t *testing.T) {
	var slept []time.Duration
	key := "sk-test-1234567890abcdef"
	chat := &fakeChat{replies: []fakeReply{{err: errors.New("dial failed for key " + key)}}}
	c := NewWithCompleter(chat, Config{APIKey: key, Retry: testPolicy(1, &slept)})

	_, err := c.GenerateSummary(context.Background(), "transcript", "")
	if err == nil || strings.Contains(err.Error(), key) {
		t.Fatalf("error leaks key: %v", err)
	}
}

func TestGenerateDescription_Truncates(t *testing.T) {
	chat := &fakeChat{replies: []fakeReply{{content: strings.Repeat("word ", 60)}}}
	c := NewWithCompleter(chat, Config{})

	got, err := c.GenerateDescription(context.Background(), "transcript", "")
	if err != nil {
		t.Fatalf("GenerateDescription() error = %v", err)
	}
	if n := len([]rune(got)); n > MaxDescriptionRunes {
		t.Fatalf("len = %d, want <= %d", n, MaxDescriptionRunes)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated description %q lacks ellipsis", got)
	}
}

func TestGenerateLabel_CleansAnswer(t *testing.T) {
	chat := &fakeChat{replies: []fakeReply{{content: "Title: \"Setting up the Go toolchain.\"\nExtra line"}}}
	c := NewWithCompleter(chat, Config{})

	got, err := c.GenerateLabel(context.Background(), LabelRequest{
		SceneNumber: 2,
		Start:       30,
		End:         95,
		Window:      transcript.Window{Text: "first we install go", ContextBefore: "hello"},
		Title:       "Go basics",
	})
	if err != nil {
		t.Fatalf("GenerateLabel() error = %v", err)
	}
	if got != "Setting up the Go toolchain" {
		t.Fatalf("GenerateLabel() = %q", got)
	}
	prompt := chat.calls[0].Messages[1].Content
	if !strings.Contains(prompt, "00:30 to 01:35") || !strings.Contains(prompt, "first we install go") {
		t.Fatalf("prompt missing scene details: %q", prompt)
	}
}

func TestGenerateTimestamps_SkipsBadLines(t *testing.T) {
	chat := &fakeChat{replies: []fakeReply{{content: "Here are your chapters:\n00:00 - Intro\n1:30 - Variables\nnot a line\n- 1:02:03 - Deep dive\n**05:10** - Wrap up"}}}
	c := NewWithCompleter(chat, Config{})

	got, err := c.GenerateTimestamps(context.Background(), "transcript", "")
	if err != nil {
		t.Fatalf("GenerateTimestamps() error = %v", err)
	}
	want := []struct{ time, desc string }{
		{"00:00", "Intro"},
		{"01:30", "Variables"},
		{"62:03", "Deep dive"},
		{"05:10", "Wrap up"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].TimeStart != w.time || got[i].Description != w.desc {
			t.Errorf("entry %d = %+v, want %s %s", i, got[i], w.time, w.desc)
		}
	}
}

func TestSelectMainScenes(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []int
		wantErr bool
	}{
		{name: "object", reply: `{"indices": [0, 2, 5]}`, want: []int{0, 2, 5}},
		{name: "fenced array", reply: "```json\n[1, 3]\n```", want: []int{1, 3}},
		{name: "salvage", reply: "I would keep [0, 4, 7] because {reasons}", want: []int{0, 4, 7}},
		{name: "garbage", reply: "all of them look fine", wantErr: true},
	}

	summaries := scenes.Summarize([]scenes.Scene{{Index: 0, StartSeconds: 0, EndSeconds: 10}})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewWithCompleter(&fakeChat{replies: []fakeReply{{content: tc.reply}}}, Config{})
			got, err := c.SelectMainScenes(context.Background(), summaries, "")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SelectMainScenes() = %v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectMainScenes() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("SelectMainScenes() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("SelectMainScenes() = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

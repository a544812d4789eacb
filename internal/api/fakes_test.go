package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/vidnav/vidnav/internal/jobs"
	"github.com/vidnav/vidnav/internal/media"
	"github.com/vidnav/vidnav/internal/pipeline"
	"github.com/vidnav/vidnav/internal/scenes"
	"github.com/vidnav/vidnav/internal/timestamps"
	"github.com/vidnav/vidnav/internal/transcript"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProcessor struct {
	requests   []pipeline.Request
	seenPaths  []string
	existed    []bool
	response   *pipeline.Response
	transcript *pipeline.TranscriptResult
	err        error
}

func (f *fakeProcessor) record(path string) {
	_, err := os.Stat(path)
	f.seenPaths = append(f.seenPaths, path)
	f.existed = append(f.existed, err == nil)
}

func (f *fakeProcessor) Transcribe(ctx context.Context, videoPath string) (*pipeline.TranscriptResult, error) {
	f.record(videoPath)
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

func (f *fakeProcessor) Process(ctx context.Context, req pipeline.Request) (*pipeline.Response, error) {
	f.record(req.VideoPath)
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.response
	resp.Task = req.Task
	return &resp, nil
}

type fakeGenerator struct {
	summary     string
	description string
	timestamps  []timestamps.Timestamp
	err         error
	titles      []string
	last        transcript.Transcript
}

func (f *fakeGenerator) Summary(ctx context.Context, tr transcript.Transcript, title string) (string, error) {
	f.titles = append(f.titles, title)
	f.last = tr
	return f.summary, f.err
}

func (f *fakeGenerator) Description(ctx context.Context, tr transcript.Transcript, title string) (string, error) {
	f.titles = append(f.titles, title)
	return f.description, f.err
}

func (f *fakeGenerator) GenerateTimestamps(ctx context.Context, tr transcript.Transcript, title string) ([]timestamps.Timestamp, error) {
	f.titles = append(f.titles, title)
	return f.timestamps, f.err
}

type fakeJobs struct {
	jobs      map[string]*jobs.Job
	order     []string
	submitted []jobs.Params
	counts    map[string]int
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]*jobs.Job{}, counts: map[string]int{}}
}

func (f *fakeJobs) Submit(ctx context.Context, videoPath, filename string, params jobs.Params) (*jobs.Job, error) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := &jobs.Job{
		ID:        "job-" + filename,
		Type:      jobs.TypeProcessVideo,
		Status:    jobs.StatusPending,
		VideoPath: videoPath,
		Filename:  filename,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.jobs[j.ID] = j
	f.order = append(f.order, j.ID)
	f.submitted = append(f.submitted, params)
	return j, nil
}

func (f *fakeJobs) Get(ctx context.Context, id string) (*jobs.Job, error) {
	return f.jobs[id], nil
}

func (f *fakeJobs) List(ctx context.Context, limit int) ([]*jobs.Job, error) {
	var out []*jobs.Job
	for _, id := range f.order {
		if len(out) == limit {
			break
		}
		out = append(out, f.jobs[id])
	}
	return out, nil
}

func (f *fakeJobs) Counts(ctx context.Context) (map[string]int, error) {
	return f.counts, nil
}

type fakeRunner struct {
	running, paused bool
	active          int
}

func (f *fakeRunner) IsRunning() bool { return f.running }
func (f *fakeRunner) IsPaused() bool  { return f.paused }
func (f *fakeRunner) ActiveJobs() int { return f.active }

type fakeDoctor struct {
	caps *media.Capabilities
	err  error
}

func (f *fakeDoctor) Get(ctx context.Context) (*media.Capabilities, error) {
	return f.caps, f.err
}

type testEnv struct {
	cfg       ServerConfig
	processor *fakeProcessor
	generator *fakeGenerator
	jobs      *fakeJobs
	router    http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		processor: &fakeProcessor{response: &pipeline.Response{}},
		generator: &fakeGenerator{},
		jobs:      newFakeJobs(),
	}
	env.cfg = ServerConfig{
		Version:        "test",
		MaxUploadBytes: 1 << 20,
		TempDir:        t.TempDir(),
		UploadDir:      t.TempDir(),
		SceneDefaults:  scenes.Options{Strategy: scenes.StrategyContent, Threshold: scenes.DefaultContentThreshold, MinSceneLength: 1},
		Processor:      env.processor,
		Generator:      env.generator,
		Jobs:           env.jobs,
		Logger:         testLogger(),
		StartTime:      time.Now(),
	}
	env.router = NewRouter(env.cfg)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// multipartRequest builds a POST with a "video" part named filename (none
// when filename is empty) and the given form fields.
func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("video", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		part.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v (body %q)", err, rr.Body.String())
	}
	return body
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rr.Code, status, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != code {
		t.Fatalf("code = %v, want %q", body["code"], code)
	}
}

// internal/server/server_test.go
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pgxlab/annobench/internal/annotation"
	"github.com/pgxlab/annobench/internal/groundtruth"
	"github.com/pgxlab/annobench/internal/pipeline"
)

type stubExtractor struct {
	docs  map[string]annotation.Document
	delay time.Duration
}

func (s *stubExtractor) EnsureModelReady(ctx context.Context) error { return nil }

func (s *stubExtractor) Extract(ctx context.Context, pmcid, article string) (annotation.Document, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	doc, ok := s.docs[pmcid]
	if !ok {
		return nil, fmt.Errorf("no canned document for %s", pmcid)
	}
	return doc, nil
}

func (s *stubExtractor) Close() error { return nil }

func fixtureDocument() annotation.Document {
	return annotation.Document{
		"var_drug_ann": []annotation.Record{{
			"Variant/Haplotypes":  "rs4149056",
			"Gene":                "SLCO1B1",
			"Drug(s)":             "simvastatin",
			"Direction of effect": "increased",
		}},
	}
}

func fixtureStore(t *testing.T, pmcids ...string) *groundtruth.Store {
	t.Helper()
	docs := make(map[string]annotation.Document, len(pmcids))
	for _, id := range pmcids {
		docs[id] = fixtureDocument()
	}
	data, err := json.Marshal(docs)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "ground_truth.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	store, err := groundtruth.Load(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return store
}

func newTestServer(t *testing.T, extractor *stubExtractor, store *groundtruth.Store) *Server {
	t.Helper()
	o := &pipeline.Orchestrator{
		Registry:    pipeline.NewRegistry(),
		Streamer:    pipeline.NewStreamer(),
		Extractor:   extractor,
		GroundTruth: store,
		Tasks:       annotation.Tasks(),
		LoadArticle: func(pmcid string) (string, error) { return "full text", nil },
	}
	return New(o)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &stubExtractor{}, fixtureStore(t, "PMC100"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRunReturnsJobID(t *testing.T) {
	store := fixtureStore(t, "PMC100")
	s := newTestServer(t, &stubExtractor{docs: map[string]annotation.Document{"PMC100": fixtureDocument()}}, store)
	h := s.Handler()

	rec := postJSON(t, h, "/api/pipeline/run", map[string]any{"pmcids": []string{"PMC100"}})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		OK    bool   `json:"ok"`
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.JobID == "" {
		t.Fatalf("response = %+v", resp)
	}

	// The job must be visible immediately even though the run is async.
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/pipeline/jobs/"+resp.JobID, nil))
	if rec2.Code != http.StatusOK {
		t.Fatalf("get job status = %d", rec2.Code)
	}
}

func TestRunRejectsInvalidJSON(t *testing.T) {
	s := newTestServer(t, &stubExtractor{}, fixtureStore(t, "PMC100"))
	req := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetJobUnknownID(t *testing.T) {
	s := newTestServer(t, &stubExtractor{}, fixtureStore(t, "PMC100"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/jobs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCancelUnknownID(t *testing.T) {
	s := newTestServer(t, &stubExtractor{}, fixtureStore(t, "PMC100"))
	rec := postJSON(t, s.Handler(), "/api/pipeline/jobs/nope/cancel", map[string]any{})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListJobs(t *testing.T) {
	store := fixtureStore(t, "PMC100")
	s := newTestServer(t, &stubExtractor{docs: map[string]annotation.Document{"PMC100": fixtureDocument()}}, store)
	h := s.Handler()

	postJSON(t, h, "/api/pipeline/run", map[string]any{"pmcids": []string{"PMC100"}})
	postJSON(t, h, "/api/pipeline/run", map[string]any{"pmcids": []string{"PMC100"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/jobs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		OK   bool           `json:"ok"`
		Jobs []pipeline.Job `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(resp.Jobs))
	}
}

func TestBenchmarkSynchronousScoring(t *testing.T) {
	store := fixtureStore(t, "PMC100")
	s := newTestServer(t, &stubExtractor{}, store)

	rec := postJSON(t, s.Handler(), "/api/benchmark", map[string]any{
		"pmcid":       "PMC100",
		"predictions": fixtureDocument(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		OK           bool    `json:"ok"`
		OverallScore float64 `json:"overallScore"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.OverallScore != 1.0 {
		t.Fatalf("response = %+v, want perfect score for identical documents", resp)
	}
}

func TestBenchmarkInlineGroundTruth(t *testing.T) {
	s := newTestServer(t, &stubExtractor{}, fixtureStore(t, "PMC100"))

	rec := postJSON(t, s.Handler(), "/api/benchmark", map[string]any{
		"predictions":  fixtureDocument(),
		"ground_truth": fixtureDocument(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestBenchmarkMissingGroundTruth(t *testing.T) {
	s := newTestServer(t, &stubExtractor{}, fixtureStore(t, "PMC100"))

	rec := postJSON(t, s.Handler(), "/api/benchmark", map[string]any{
		"pmcid":       "PMC999",
		"predictions": fixtureDocument(),
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = postJSON(t, s.Handler(), "/api/benchmark", map[string]any{
		"predictions": fixtureDocument(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want bad request without pmcid or ground truth", rec.Code)
	}
}

func TestJobEventsStream(t *testing.T) {
	store := fixtureStore(t, "PMC100")
	s := newTestServer(t, &stubExtractor{
		docs:  map[string]annotation.Document{"PMC100": fixtureDocument()},
		delay: 10 * time.Millisecond,
	}, store)
	h := s.Handler()

	rec := postJSON(t, h, "/api/pipeline/run", map[string]any{"pmcids": []string{"PMC100"}})
	var started struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode: %v", err)
	}

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/pipeline/jobs/" + started.JobID + "/events")
	if err != nil {
		t.Fatalf("events request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var lastStatus pipeline.Status
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var snap pipeline.Job
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		lastStatus = snap.Status
	}
	if lastStatus != pipeline.StatusCompleted {
		t.Fatalf("last streamed status = %s, want completed", lastStatus)
	}
}

func TestJobEventsUnknownID(t *testing.T) {
	s := newTestServer(t, &stubExtractor{}, fixtureStore(t, "PMC100"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/jobs/nope/events", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

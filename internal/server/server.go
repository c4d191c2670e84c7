// internal/server/server.go

// Package server exposes the pipeline and scoring engine over HTTP. Runs
// are asynchronous: POST /api/pipeline/run returns a job id immediately and
// the job is observed through polling or the SSE event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pgxlab/annobench/internal/annotation"
	"github.com/pgxlab/annobench/internal/benchmark"
	"github.com/pgxlab/annobench/internal/groundtruth"
	"github.com/pgxlab/annobench/internal/logging"
	"github.com/pgxlab/annobench/internal/pipeline"
)

// ErrResp is the uniform error body.
type ErrResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Server wires the HTTP surface to the orchestrator and scoring engine.
type Server struct {
	Orchestrator *pipeline.Orchestrator
	GroundTruth  *groundtruth.Store
	Tasks        []annotation.TaskSpec
}

// New returns a server for the given orchestrator. Tasks and ground truth
// are taken from the orchestrator's collaborators.
func New(o *pipeline.Orchestrator) *Server {
	return &Server{
		Orchestrator: o,
		GroundTruth:  o.GroundTruth,
		Tasks:        o.Tasks,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/pipeline/run", s.handleRun)
	mux.HandleFunc("GET /api/pipeline/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/pipeline/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /api/pipeline/jobs/{id}/cancel", s.handleCancelJob)
	mux.HandleFunc("GET /api/pipeline/jobs/{id}/events", s.handleJobEvents)
	mux.HandleFunc("POST /api/benchmark", s.handleBenchmark)
	return mux
}

// ListenAndServe blocks serving the API until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	logging.LogEvent("api listening on %s", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type runResponse struct {
	OK    bool   `json:"ok"`
	JobID string `json:"job_id"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req pipeline.RunRequest
	if err := decodeJSON(w, r, &req, 1<<20 /* 1 MiB */); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrResp{Error: "invalid JSON: " + err.Error()})
		return
	}

	// The run outlives the request; it is bound to the server's lifetime,
	// not the caller's connection.
	id, err := s.Orchestrator.Start(context.Background(), req)
	if err != nil {
		logging.LogEvent("pipeline start rejected: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrResp{Error: err.Error()})
		return
	}

	logging.LogEvent("pipeline run %s accepted from %s", id, r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, runResponse{OK: true, JobID: id})
}

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := s.Orchestrator.Registry.List()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := s.Orchestrator.Registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrResp{Error: "unknown job: " + id})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := s.Orchestrator.Registry.RequestCancel(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrResp{Error: "unknown job: " + id})
		return
	}
	logging.LogEvent("cancel requested for job %s (status %s)", id, job.Status)
	writeJSON(w, http.StatusAccepted, job)
}

// handleJobEvents streams job snapshots as server-sent events, one JSON
// snapshot per event. The stream ends after the terminal snapshot.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Orchestrator.Registry.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, ErrResp{Error: "unknown job: " + id})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrResp{Error: "streaming unsupported"})
		return
	}

	ch, cancel := s.Orchestrator.Streamer.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case snapshot, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(snapshot)
			if err != nil {
				logging.LogEvent("job %s event marshal error: %v", id, err)
				return
			}
			fmt.Fprintf(w, "event: job\ndata: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// benchmarkRequest scores one prediction document synchronously. Ground
// truth comes from the request when present, otherwise from the configured
// store by PMCID.
type benchmarkRequest struct {
	PMCID       string               `json:"pmcid,omitempty"`
	Predictions annotation.Document  `json:"predictions"`
	GroundTruth *annotation.Document `json:"ground_truth,omitempty"`
}

type benchmarkResponse struct {
	OK           bool                     `json:"ok"`
	PMCID        string                   `json:"pmcid,omitempty"`
	Tasks        benchmark.DocumentResult `json:"tasks"`
	OverallScore float64                  `json:"overallScore"`
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	var req benchmarkRequest
	if err := decodeJSON(w, r, &req, 8<<20 /* 8 MiB */); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Predictions == nil {
		writeJSON(w, http.StatusBadRequest, ErrResp{Error: "predictions are required"})
		return
	}

	var truth annotation.Document
	switch {
	case req.GroundTruth != nil:
		truth = *req.GroundTruth
	case req.PMCID != "":
		var ok bool
		truth, ok = s.GroundTruth.Lookup(req.PMCID)
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrResp{Error: "no ground truth for " + req.PMCID})
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, ErrResp{Error: "either pmcid or ground_truth is required"})
		return
	}

	result := benchmark.ScoreDocument(s.Tasks, req.Predictions, truth)
	summary := benchmark.Summarize(map[string]benchmark.DocumentResult{"doc": result})

	logging.LogEvent("benchmark request scored pmcid=%q tasks=%d overall=%.4f", req.PMCID, len(result), summary.OverallScore)
	writeJSON(w, http.StatusOK, benchmarkResponse{
		OK:           true,
		PMCID:        req.PMCID,
		Tasks:        result,
		OverallScore: summary.OverallScore,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

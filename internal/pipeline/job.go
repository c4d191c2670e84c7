// internal/pipeline/job.go

// Package pipeline drives full benchmark runs: a job state machine, the
// process-wide job registry, snapshot streaming to subscribers, and the
// orchestrator that fans extraction out over documents and scores the
// results.
package pipeline

import (
	"time"

	"github.com/pgxlab/annobench/internal/benchmark"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Stage labels the orchestrator's position within a running job. Stages are
// advisory progress markers and only ever advance.
type Stage string

const (
	StageInitializing         Stage = "initializing"
	StageLoadingConfiguration Stage = "loading_configuration"
	StageProcessingPMCIDs     Stage = "processing_pmcids"
	StageCombiningOutputs     Stage = "combining_outputs"
	StageRunningBenchmarks    Stage = "running_benchmarks"
	StageSavingResults        Stage = "saving_results"
)

// Message is one entry in a job's append-only log.
type Message struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// RunResult is the final artifact of a completed pipeline run.
type RunResult struct {
	Model      string                               `json:"model"`
	PMCIDs     []string                             `json:"pmcids"`
	Documents  map[string]benchmark.DocumentResult  `json:"documents"`
	Failures   map[string]string                    `json:"failures,omitempty"`
	Summary    benchmark.Summary                    `json:"summary"`
	StartedAt  time.Time                            `json:"startedAt"`
	FinishedAt time.Time                            `json:"finishedAt"`
}

// Job is one pipeline run. The orchestrator goroutine that owns the job is
// its only mutator; everyone else reads cloned snapshots through the
// registry, so a reader never observes a half-applied update.
type Job struct {
	ID              string     `json:"id"`
	Status          Status     `json:"status"`
	Stage           Stage      `json:"stage,omitempty"`
	Progress        float64    `json:"progress"`
	PMCIDsProcessed int        `json:"pmcidsProcessed"`
	PMCIDsTotal     int        `json:"pmcidsTotal"`
	CurrentItem     string     `json:"currentItem,omitempty"`
	Messages        []Message  `json:"messages"`
	Result          *RunResult `json:"result,omitempty"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// cancelRequested is the cooperative cancellation flag, checked by the
	// orchestrator before dispatching each document.
	cancelRequested bool
}

// Clone returns a deep-enough copy for handing to readers: the message log
// is copied, the result pointer is shared because a RunResult is immutable
// once attached.
func (j *Job) Clone() Job {
	clone := *j
	clone.Messages = append([]Message(nil), j.Messages...)
	return clone
}

// AppendMessage adds one log entry. Allowed in every state, including
// terminal ones.
func (j *Job) AppendMessage(text string) {
	j.Messages = append(j.Messages, Message{Time: time.Now().UTC(), Text: text})
}

// SetProgress advances progress, never regresses it.
func (j *Job) SetProgress(p float64) {
	if p > 1 {
		p = 1
	}
	if p > j.Progress {
		j.Progress = p
	}
}

// Advance moves the job to a later stage. No-op once terminal.
func (j *Job) Advance(stage Stage) {
	if j.Status.Terminal() {
		return
	}
	j.Status = StatusRunning
	j.Stage = stage
	j.CurrentItem = ""
}

// Complete attaches the result and finishes the job. No-op once terminal.
func (j *Job) Complete(result *RunResult) {
	if j.Status.Terminal() {
		return
	}
	j.Status = StatusCompleted
	j.Result = result
	j.CurrentItem = ""
	j.SetProgress(1)
}

// Fail finishes the job with an error. No-op once terminal.
func (j *Job) Fail(errText string) {
	if j.Status.Terminal() {
		return
	}
	j.Status = StatusFailed
	j.Error = errText
	j.CurrentItem = ""
}

// Cancel finishes the job as cancelled. No-op once terminal.
func (j *Job) Cancel() {
	if j.Status.Terminal() {
		return
	}
	j.Status = StatusCancelled
	j.CurrentItem = ""
}

// internal/pipeline/registry.go
package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the process-wide job store. Exactly one orchestrator
// goroutine mutates any given job, through Update; any number of readers
// take consistent snapshots concurrently. Entries live for the life of the
// process.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string
}

// NewRegistry returns an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create allocates a new pending job and returns its snapshot.
func (r *Registry) Create() Job {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Stage:     StageInitializing,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	return job.Clone()
}

// Get returns a snapshot of a job by id.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.Clone(), true
}

// List returns snapshots of all jobs in creation order.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.order))
	for _, id := range r.order {
		if job, ok := r.jobs[id]; ok {
			out = append(out, job.Clone())
		}
	}
	return out
}

// Update applies one mutation to a job under the registry lock and returns
// the resulting snapshot. UpdatedAt advances on every call. The snapshot is
// what the orchestrator hands to the event streamer, so readers observe
// each mutation as a single unit.
func (r *Registry) Update(id string, fn func(*Job)) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
	return job.Clone(), true
}

// RequestCancel flags a job for cooperative cancellation. Cancelling a job
// that is already terminal is a no-op, not an error. The second return
// reports whether the id was known.
func (r *Registry) RequestCancel(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	if !job.Status.Terminal() {
		job.cancelRequested = true
	}
	return job.Clone(), true
}

// CancelRequested reports whether cancellation has been requested for a job.
func (r *Registry) CancelRequested(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return ok && job.cancelRequested
}

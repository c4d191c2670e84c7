// internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pgxlab/annobench/internal/annotation"
	"github.com/pgxlab/annobench/internal/benchmark"
	"github.com/pgxlab/annobench/internal/extraction"
	"github.com/pgxlab/annobench/internal/groundtruth"
	"github.com/pgxlab/annobench/internal/logging"
)

// Progress checkpoints per stage. Extraction owns the bulk of the bar; the
// remaining stages are fast.
const (
	progressConfigured = 0.05
	progressExtracting = 0.10
	progressExtracted  = 0.80
	progressCombined   = 0.85
	progressScored     = 0.95
)

// RunRequest describes one pipeline run.
type RunRequest struct {
	// PMCIDs selects the documents to process. Empty means every document
	// in the ground-truth set.
	PMCIDs []string `json:"pmcids,omitempty"`
	// Model overrides the configured extraction model identifier, for
	// reporting only; the extractor is already bound to a model.
	Model string `json:"model,omitempty"`
	// Concurrency bounds in-flight extraction calls. Values below 1 fall
	// back to 1.
	Concurrency int `json:"concurrency,omitempty"`
}

// Orchestrator drives pipeline jobs end to end. All collaborator fields
// must be set before Start is called; Normalize and SaveResult are
// optional hooks.
type Orchestrator struct {
	Registry    *Registry
	Streamer    *Streamer
	Extractor   extraction.Extractor
	GroundTruth *groundtruth.Store
	Tasks       []annotation.TaskSpec

	// LoadArticle fetches a document's full text by PMCID.
	LoadArticle func(pmcid string) (string, error)
	// Normalize, when set, rewrites extracted terms to curated vocabulary
	// before scoring (external collaborator).
	Normalize func(annotation.Document) annotation.Document
	// SaveResult, when set, persists the final result and returns where it
	// was written.
	SaveResult func(jobID string, result *RunResult) (string, error)

	// pubMu keeps mutation and publish as one unit so subscribers see
	// snapshots in mutation order.
	pubMu sync.Mutex
}

// Start allocates a job and begins orchestration asynchronously, returning
// the job id immediately. The context governs the whole run, not the Start
// call.
func (o *Orchestrator) Start(ctx context.Context, req RunRequest) (string, error) {
	if o.Registry == nil || o.Streamer == nil || o.Extractor == nil || o.GroundTruth == nil {
		return "", fmt.Errorf("orchestrator is missing collaborators")
	}
	if len(o.Tasks) == 0 {
		return "", fmt.Errorf("orchestrator has no tasks configured")
	}
	if o.LoadArticle == nil {
		return "", fmt.Errorf("orchestrator has no article loader")
	}

	job := o.Registry.Create()
	o.Streamer.Publish(job)
	go o.run(ctx, job.ID, req)
	return job.ID, nil
}

// update applies one mutation and publishes the resulting snapshot.
func (o *Orchestrator) update(id string, fn func(*Job)) {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()
	if snapshot, ok := o.Registry.Update(id, fn); ok {
		o.Streamer.Publish(snapshot)
	}
}

func (o *Orchestrator) fail(id string, err error) {
	logging.LogEvent("job %s failed: %v", id, err)
	o.update(id, func(j *Job) {
		j.AppendMessage(fmt.Sprintf("pipeline failed: %v", err))
		j.Fail(err.Error())
	})
}

// documentOutcome is one document's extraction result, recorded in
// completion order.
type documentOutcome struct {
	pmcid string
	doc   annotation.Document
	err   error
}

func (o *Orchestrator) run(ctx context.Context, id string, req RunRequest) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(id, fmt.Errorf("internal error: %v", r))
		}
	}()

	job, ok := o.Registry.Get(id)
	if !ok || job.Status.Terminal() {
		return
	}

	o.update(id, func(j *Job) {
		j.Advance(StageInitializing)
		j.AppendMessage("pipeline run started")
	})

	// Resolve the document set and make sure the model can serve.
	pmcids := append([]string(nil), req.PMCIDs...)
	if len(pmcids) == 0 {
		pmcids = o.GroundTruth.PMCIDs()
	}
	sort.Strings(pmcids)
	if len(pmcids) == 0 {
		o.fail(id, fmt.Errorf("no documents to process"))
		return
	}

	o.update(id, func(j *Job) {
		j.Advance(StageLoadingConfiguration)
		j.PMCIDsTotal = len(pmcids)
		j.AppendMessage(fmt.Sprintf("resolved %d documents", len(pmcids)))
	})

	if err := o.Extractor.EnsureModelReady(ctx); err != nil {
		o.fail(id, fmt.Errorf("extraction model not ready: %w", err))
		return
	}
	o.update(id, func(j *Job) { j.SetProgress(progressConfigured) })

	outcomes, cancelled := o.extractAll(ctx, id, pmcids, req.Concurrency)
	if cancelled {
		o.update(id, func(j *Job) {
			j.AppendMessage(fmt.Sprintf("cancelled after %d of %d documents", len(outcomes), len(pmcids)))
			j.Cancel()
		})
		return
	}
	if err := ctx.Err(); err != nil {
		o.fail(id, fmt.Errorf("run context: %w", err))
		return
	}

	// Combine per-document outputs, applying term normalization when a
	// normalizer collaborator is wired.
	o.update(id, func(j *Job) {
		j.Advance(StageCombiningOutputs)
		j.SetProgress(progressExtracted)
	})
	combined := make(map[string]annotation.Document, len(outcomes))
	failures := map[string]string{}
	for _, outcome := range outcomes {
		if outcome.err != nil {
			failures[outcome.pmcid] = outcome.err.Error()
			continue
		}
		doc := outcome.doc
		if o.Normalize != nil {
			doc = o.Normalize(doc)
		}
		combined[outcome.pmcid] = doc
	}
	o.update(id, func(j *Job) {
		j.AppendMessage(fmt.Sprintf("combined outputs: %d extracted, %d failed", len(combined), len(failures)))
		j.SetProgress(progressCombined)
	})

	// Score everything we have ground truth for.
	o.update(id, func(j *Job) { j.Advance(StageRunningBenchmarks) })
	perDocument := make(map[string]benchmark.DocumentResult, len(combined))
	for pmcid, doc := range combined {
		truth, ok := o.GroundTruth.Lookup(pmcid)
		if !ok {
			o.update(id, func(j *Job) {
				j.AppendMessage(fmt.Sprintf("no ground truth for %s, skipping benchmark", pmcid))
			})
			continue
		}
		perDocument[pmcid] = benchmark.ScoreDocument(o.Tasks, doc, truth)
	}
	summary := benchmark.Summarize(perDocument)
	o.update(id, func(j *Job) {
		j.AppendMessage(fmt.Sprintf("benchmarked %d documents, overall score %.4f", len(perDocument), summary.OverallScore))
		j.SetProgress(progressScored)
	})

	result := &RunResult{
		Model:      req.Model,
		PMCIDs:     pmcids,
		Documents:  perDocument,
		Failures:   failures,
		Summary:    summary,
		StartedAt:  job.CreatedAt,
		FinishedAt: time.Now().UTC(),
	}

	o.update(id, func(j *Job) { j.Advance(StageSavingResults) })
	if o.SaveResult != nil {
		path, err := o.SaveResult(id, result)
		if err != nil {
			o.fail(id, fmt.Errorf("save results: %w", err))
			return
		}
		o.update(id, func(j *Job) {
			j.AppendMessage(fmt.Sprintf("results written to %s", path))
		})
	}

	o.update(id, func(j *Job) {
		j.AppendMessage("pipeline run completed")
		j.Complete(result)
	})
}

// extractAll fans extraction out over the documents with at most
// concurrency in-flight calls. The message log and counters advance in
// completion order; documents may finish out of submission order. A
// cancellation request stops new dispatches and lets in-flight extractions
// drain.
func (o *Orchestrator) extractAll(ctx context.Context, id string, pmcids []string, concurrency int) ([]documentOutcome, bool) {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []documentOutcome
	)
	total := len(pmcids)

	o.update(id, func(j *Job) {
		j.Advance(StageProcessingPMCIDs)
		j.SetProgress(progressExtracting)
		j.AppendMessage(fmt.Sprintf("processing %d documents with concurrency %d", total, concurrency))
	})

	cancelled := false
	for _, pmcid := range pmcids {
		if o.Registry.CancelRequested(id) {
			cancelled = true
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		// Checkpoint: a cancel that arrived while waiting for a slot must
		// not dispatch another document.
		if o.Registry.CancelRequested(id) {
			sem.Release(1)
			cancelled = true
			break
		}

		o.update(id, func(j *Job) { j.CurrentItem = pmcid })

		wg.Add(1)
		go func(pmcid string) {
			defer wg.Done()
			defer sem.Release(1)

			outcome := documentOutcome{pmcid: pmcid}
			article, err := o.LoadArticle(pmcid)
			if err != nil {
				outcome.err = err
			} else {
				outcome.doc, outcome.err = o.Extractor.Extract(ctx, pmcid, article)
			}

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()

			o.update(id, func(j *Job) {
				j.PMCIDsProcessed++
				j.SetProgress(progressExtracting + (progressExtracted-progressExtracting)*float64(j.PMCIDsProcessed)/float64(total))
				if outcome.err != nil {
					j.AppendMessage(fmt.Sprintf("extraction failed for %s: %v", pmcid, outcome.err))
				} else {
					j.AppendMessage(fmt.Sprintf("extracted %s", pmcid))
				}
			})
		}(pmcid)
	}
	wg.Wait()

	if cancelled {
		return outcomes, true
	}
	// A cancel that landed after the last dispatch still wins.
	if o.Registry.CancelRequested(id) {
		return outcomes, true
	}
	return outcomes, false
}

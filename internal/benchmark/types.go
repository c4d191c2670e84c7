// internal/benchmark/types.go

// Package benchmark implements the alignment and scoring engine: pairing
// predicted annotation records with ground truth, scoring each pair field by
// field, and aggregating scores across tasks and documents.
package benchmark

// Pair links one predicted record to one ground-truth record by index, with
// the key-field similarity that justified the match.
type Pair struct {
	Prediction  int     `json:"prediction"`
	GroundTruth int     `json:"groundTruth"`
	Score       float64 `json:"score"`
}

// Alignment is the result of matching a prediction list against a
// ground-truth list. Every index from either list appears exactly once:
// in a pair or in its leftover set.
type Alignment struct {
	Pairs                []Pair `json:"pairs"`
	UnmatchedPredictions []int  `json:"unmatchedPredictions"`
	UnmatchedGroundTruth []int  `json:"unmatchedGroundTruth"`
}

// FieldScore aggregates one field's scores across all aligned pairs.
type FieldScore struct {
	Mean   float64   `json:"mean"`
	Scores []float64 `json:"scores"`
}

// TaskResult holds the scores for one annotation type on one document.
type TaskResult struct {
	Task string `json:"task"`
	// OverallScore is the mean pair score over all ground-truth records;
	// unmatched ground truth contributes zero.
	OverallScore float64 `json:"overallScore"`
	// TotalSamples is the ground-truth record count, the scoring denominator.
	TotalSamples int                   `json:"totalSamples"`
	FieldScores  map[string]FieldScore `json:"fieldScores,omitempty"`
	PairScores   []float64             `json:"pairScores,omitempty"`
	Alignment    Alignment             `json:"alignment"`
	// Error records an internal scoring failure; an errored result is
	// excluded from aggregation.
	Error string `json:"error,omitempty"`
}

// Errored reports whether the task failed to score.
func (r TaskResult) Errored() bool { return r.Error != "" }

// DocumentResult maps task name to its result for one document.
type DocumentResult map[string]TaskResult

// TaskSummary is one task's aggregate across the documents of a run.
type TaskSummary struct {
	// Mean is the unweighted mean of per-document overall scores, over
	// documents that had ground truth for this task and scored cleanly.
	Mean float64 `json:"mean"`
	// Documents counts the documents contributing to Mean.
	Documents int `json:"documents"`
	// Errors counts documents whose result errored and was excluded.
	Errors int `json:"errors"`
}

// Summary is the cross-document roll-up of a pipeline run.
type Summary struct {
	Tasks map[string]TaskSummary `json:"tasks"`
	// OverallScore is the unweighted mean over tasks of each task's Mean.
	OverallScore float64 `json:"overallScore"`
}

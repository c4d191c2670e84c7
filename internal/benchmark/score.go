// internal/benchmark/score.go
package benchmark

import (
	"fmt"

	"github.com/pgxlab/annobench/internal/annotation"
)

// ScoreTask aligns and scores one annotation type on one document.
//
// The overall score is the sum of pair scores divided by the ground-truth
// count: ground truth the extractor missed drags the score down, while
// surplus predictions are reported in the alignment but do not change the
// denominator. An empty ground-truth list yields a degenerate result with
// zero samples, which callers must treat as "nothing to benchmark".
//
// A panic inside the comparators is captured into TaskResult.Error so one
// malformed task cannot take down scoring for the rest of the document.
func ScoreTask(task annotation.TaskSpec, preds, truth []annotation.Record) (result TaskResult) {
	result = TaskResult{Task: task.Name, TotalSamples: len(truth)}
	defer func() {
		if r := recover(); r != nil {
			result = TaskResult{
				Task:         task.Name,
				TotalSamples: len(truth),
				Error:        fmt.Sprintf("scoring failed: %v", r),
			}
		}
	}()

	if len(truth) == 0 {
		result.Alignment = Align(task, preds, truth)
		return result
	}

	alignment := Align(task, preds, truth)
	fieldScores := make(map[string]FieldScore, len(task.Fields))
	pairScores := make([]float64, 0, len(alignment.Pairs))

	for _, pair := range alignment.Pairs {
		pred := preds[pair.Prediction]
		gt := truth[pair.GroundTruth]

		weightedSum := 0.0
		totalWeight := 0.0
		for _, f := range task.Fields {
			score := Compare(f, pred[f.Name], gt[f.Name])
			fs := fieldScores[f.Name]
			fs.Scores = append(fs.Scores, score)
			fieldScores[f.Name] = fs

			w := f.EffectiveWeight()
			weightedSum += score * w
			totalWeight += w
		}
		pairScore := 0.0
		if totalWeight > 0 {
			pairScore = weightedSum / totalWeight
		}
		pairScores = append(pairScores, pairScore)
	}

	for name, fs := range fieldScores {
		sum := 0.0
		for _, s := range fs.Scores {
			sum += s
		}
		fs.Mean = sum / float64(len(fs.Scores))
		fieldScores[name] = fs
	}

	total := 0.0
	for _, s := range pairScores {
		total += s
	}

	result.OverallScore = total / float64(len(truth))
	result.FieldScores = fieldScores
	result.PairScores = pairScores
	result.Alignment = alignment
	return result
}

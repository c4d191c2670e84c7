// internal/benchmark/aggregate.go
package benchmark

import (
	"github.com/pgxlab/annobench/internal/annotation"
)

// ScoreDocument scores every task for one document. Tasks with no ground
// truth are omitted entirely: there is nothing to benchmark, which is
// different from scoring zero. Tasks with ground truth but no predictions
// score zero across the full ground-truth count.
func ScoreDocument(tasks []annotation.TaskSpec, preds, truth annotation.Document) DocumentResult {
	result := DocumentResult{}
	for _, task := range tasks {
		gt := truth.Records(task)
		if len(gt) == 0 {
			continue
		}
		result[task.Name] = ScoreTask(task, preds.Records(task), gt)
	}
	return result
}

// Summarize rolls per-document task results up to run level with two-level
// averaging: per-document scores average into a per-task mean, and the task
// means average into the overall score. Averaging documents before tasks
// keeps documents with many annotation rows from dominating the summary by
// volume alone. Errored results are excluded from means and counted.
func Summarize(perDocument map[string]DocumentResult) Summary {
	sums := map[string]float64{}
	counts := map[string]int{}
	errors := map[string]int{}

	for _, docResult := range perDocument {
		for task, result := range docResult {
			if result.Errored() {
				errors[task]++
				continue
			}
			sums[task] += result.OverallScore
			counts[task]++
		}
	}

	summary := Summary{Tasks: map[string]TaskSummary{}}
	taskTotal := 0.0
	taskCount := 0
	for task, count := range counts {
		mean := sums[task] / float64(count)
		summary.Tasks[task] = TaskSummary{Mean: mean, Documents: count, Errors: errors[task]}
		taskTotal += mean
		taskCount++
	}
	// Tasks that only ever errored still show up, with no mean contribution.
	for task, errCount := range errors {
		if _, ok := summary.Tasks[task]; !ok {
			summary.Tasks[task] = TaskSummary{Errors: errCount}
		}
	}

	if taskCount > 0 {
		summary.OverallScore = taskTotal / float64(taskCount)
	}
	return summary
}

// internal/benchmark/aggregate_test.go
package benchmark

import (
	"math"
	"testing"

	"github.com/pgxlab/annobench/internal/annotation"
)

func TestScoreDocumentSkipsTasksWithoutGroundTruth(t *testing.T) {
	tasks := []annotation.TaskSpec{scoreTestTask}
	preds := annotation.Document{
		"test_ann": {{"variant": "rs1", "score_field": 1.0}},
	}
	truth := annotation.Document{} // no ground truth at all

	result := ScoreDocument(tasks, preds, truth)
	if len(result) != 0 {
		t.Fatalf("result = %v, want no entries when ground truth is absent", result)
	}
}

func TestScoreDocumentPenalizesEmptyPredictions(t *testing.T) {
	tasks := []annotation.TaskSpec{scoreTestTask}
	truth := annotation.Document{
		"test_ann": {{"variant": "rs1"}, {"variant": "rs2"}},
	}

	result := ScoreDocument(tasks, annotation.Document{}, truth)

	taskResult, ok := result["test-task"]
	if !ok {
		t.Fatalf("missing task result: %v", result)
	}
	if taskResult.OverallScore != 0 {
		t.Fatalf("overall score = %v, want 0", taskResult.OverallScore)
	}
	if taskResult.TotalSamples != 2 {
		t.Fatalf("total samples = %d, want 2", taskResult.TotalSamples)
	}
}

func TestSummarizeExcludesMissingGroundTruth(t *testing.T) {
	perDoc := map[string]DocumentResult{
		"PMC1": {"var-pheno": {Task: "var-pheno", OverallScore: 0.8}},
		"PMC2": {"var-pheno": {Task: "var-pheno", OverallScore: 0.4}},
		// PMC3 had no var-pheno ground truth: no entry, must not pad the
		// mean with a zero.
		"PMC3": {"var-drug": {Task: "var-drug", OverallScore: 1.0}},
	}

	summary := Summarize(perDoc)

	pheno := summary.Tasks["var-pheno"]
	if pheno.Documents != 2 {
		t.Fatalf("var-pheno documents = %d, want 2", pheno.Documents)
	}
	if math.Abs(pheno.Mean-0.6) > 1e-9 {
		t.Fatalf("var-pheno mean = %v, want 0.6", pheno.Mean)
	}
	drug := summary.Tasks["var-drug"]
	if drug.Documents != 1 || drug.Mean != 1.0 {
		t.Fatalf("var-drug summary = %+v", drug)
	}
	// Overall is the unweighted mean over task means: (0.6 + 1.0) / 2.
	if math.Abs(summary.OverallScore-0.8) > 1e-9 {
		t.Fatalf("overall = %v, want 0.8", summary.OverallScore)
	}
}

func TestSummarizeExcludesErroredResults(t *testing.T) {
	perDoc := map[string]DocumentResult{
		"PMC1": {"var-pheno": {Task: "var-pheno", OverallScore: 0.9}},
		"PMC2": {"var-pheno": {Task: "var-pheno", Error: "scoring failed: boom"}},
	}

	summary := Summarize(perDoc)

	pheno := summary.Tasks["var-pheno"]
	if pheno.Documents != 1 {
		t.Fatalf("documents = %d, want 1 (errored doc excluded)", pheno.Documents)
	}
	if pheno.Errors != 1 {
		t.Fatalf("errors = %d, want 1", pheno.Errors)
	}
	if math.Abs(pheno.Mean-0.9) > 1e-9 {
		t.Fatalf("mean = %v, want 0.9", pheno.Mean)
	}
}

func TestSummarizeAllErrored(t *testing.T) {
	perDoc := map[string]DocumentResult{
		"PMC1": {"var-fa": {Task: "var-fa", Error: "bad spec"}},
	}

	summary := Summarize(perDoc)

	fa, ok := summary.Tasks["var-fa"]
	if !ok {
		t.Fatalf("task with only errors must still be reported: %+v", summary)
	}
	if fa.Errors != 1 || fa.Documents != 0 {
		t.Fatalf("fa summary = %+v", fa)
	}
	if summary.OverallScore != 0 {
		t.Fatalf("overall = %v, want 0", summary.OverallScore)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.OverallScore != 0 || len(summary.Tasks) != 0 {
		t.Fatalf("empty summary = %+v", summary)
	}
}

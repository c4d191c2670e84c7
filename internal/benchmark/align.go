// internal/benchmark/align.go
package benchmark

import (
	"sort"

	"github.com/pgxlab/annobench/internal/annotation"
)

// candidate is one potential prediction/ground-truth pairing.
type candidate struct {
	pred  int
	truth int
	score float64
}

// Align solves a one-to-one assignment between predicted and ground-truth
// records using key-field similarity. There is no stable identifier linking
// the two lists, so candidate pairs are scored with the task's key fields
// and matched greedily: best score first, each index used at most once,
// pairs below the task's match threshold rejected.
//
// Ties break toward the lower ground-truth index, then the lower prediction
// index, so repeated runs over the same lists produce the same alignment.
func Align(task annotation.TaskSpec, preds, truth []annotation.Record) Alignment {
	keys := task.KeyFields()

	candidates := make([]candidate, 0, len(preds)*len(truth))
	for i, p := range preds {
		for j, t := range truth {
			score := keyScore(keys, p, t)
			if score >= task.MatchThreshold {
				candidates = append(candidates, candidate{pred: i, truth: j, score: score})
			}
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.score != cb.score {
			return ca.score > cb.score
		}
		if ca.truth != cb.truth {
			return ca.truth < cb.truth
		}
		return ca.pred < cb.pred
	})

	usedPred := make([]bool, len(preds))
	usedTruth := make([]bool, len(truth))
	alignment := Alignment{
		Pairs:                []Pair{},
		UnmatchedPredictions: []int{},
		UnmatchedGroundTruth: []int{},
	}
	for _, c := range candidates {
		if usedPred[c.pred] || usedTruth[c.truth] {
			continue
		}
		usedPred[c.pred] = true
		usedTruth[c.truth] = true
		alignment.Pairs = append(alignment.Pairs, Pair{Prediction: c.pred, GroundTruth: c.truth, Score: c.score})
	}

	for i := range preds {
		if !usedPred[i] {
			alignment.UnmatchedPredictions = append(alignment.UnmatchedPredictions, i)
		}
	}
	for j := range truth {
		if !usedTruth[j] {
			alignment.UnmatchedGroundTruth = append(alignment.UnmatchedGroundTruth, j)
		}
	}
	return alignment
}

// keyScore is the weighted mean comparator score over the task's key fields.
func keyScore(keys []annotation.FieldSpec, pred, truth annotation.Record) float64 {
	if len(keys) == 0 {
		return 0.0
	}
	weightedSum := 0.0
	totalWeight := 0.0
	for _, f := range keys {
		w := f.EffectiveWeight()
		weightedSum += Compare(f, pred[f.Name], truth[f.Name]) * w
		totalWeight += w
	}
	return weightedSum / totalWeight
}

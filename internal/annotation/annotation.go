// internal/annotation/annotation.go

// Package annotation defines the shared data model for extracted and curated
// pharmacogenomics annotations: records, per-field comparison specs, and the
// task tables for the four PharmGKB annotation types.
package annotation

// Kind selects the comparison strategy for a field.
type Kind string

const (
	// KindExact requires a case- and whitespace-normalized exact match.
	KindExact Kind = "exact"
	// KindCategory is exact matching over a controlled vocabulary.
	KindCategory Kind = "category"
	// KindFuzzy is token-overlap similarity with a minimum floor.
	KindFuzzy Kind = "fuzzy"
	// KindNumeric compares parsed numbers within tolerance bands.
	KindNumeric Kind = "numeric"
	// KindSet compares delimiter-separated value lists by Jaccard overlap.
	KindSet Kind = "set"
	// KindText is token-overlap similarity without a floor, for free text.
	KindText Kind = "text"
)

// FieldSpec describes how one named field is scored.
type FieldSpec struct {
	Name   string
	Kind   Kind
	Weight float64 // contribution to the pair score; 0 means 1.0
	Key    bool    // participates in alignment scoring
	Floor  float64 // fuzzy only: scores below this clamp to 0; 0 means default
}

// EffectiveWeight returns the field weight, defaulting to 1.0.
func (f FieldSpec) EffectiveWeight() float64 {
	if f.Weight <= 0 {
		return 1.0
	}
	return f.Weight
}

// TaskSpec describes one annotation type to be benchmarked.
type TaskSpec struct {
	// Name is the task identifier used in results (e.g. "var-pheno").
	Name string
	// JSONKey is the key under which record lists appear in prediction and
	// ground-truth documents (e.g. "var_pheno_ann").
	JSONKey string
	// Fields lists every scored field, in report order.
	Fields []FieldSpec
	// MatchThreshold is the minimum key-field similarity for the aligner to
	// accept a prediction/ground-truth pair.
	MatchThreshold float64
}

// KeyFields returns the subset of fields used for alignment. If no field is
// marked as a key, all fields are used.
func (t TaskSpec) KeyFields() []FieldSpec {
	keys := make([]FieldSpec, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Key {
			keys = append(keys, f)
		}
	}
	if len(keys) == 0 {
		return t.Fields
	}
	return keys
}

// Field looks up a field spec by name.
func (t TaskSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Record is one extracted or curated annotation: a JSON object mapping field
// names to string, number, or null values. Records are treated as immutable
// once produced; identity is positional within the source list.
type Record map[string]any

// Document groups the record lists for one article, keyed by task JSON key.
type Document map[string][]Record

// Records returns the record list for a task, or nil when absent.
func (d Document) Records(task TaskSpec) []Record {
	if d == nil {
		return nil
	}
	return d[task.JSONKey]
}

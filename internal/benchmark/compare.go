// internal/benchmark/compare.go
package benchmark

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pgxlab/annobench/internal/annotation"
)

// defaultFuzzyFloor clamps weak fuzzy matches to zero so coincidental token
// overlap is not rewarded.
const defaultFuzzyFloor = 0.5

var (
	whitespaceRE  = regexp.MustCompile(`\s+`)
	punctRE       = regexp.MustCompile(`[,;]+`)
	numericJunkRE = regexp.MustCompile(`[,\s$]`)
	setSplitRE    = regexp.MustCompile(`[,;|]+`)
)

// Compare scores a predicted value against a ground-truth value according to
// the field's comparison kind. The result is always in [0,1]. Compare is a
// pure function: identical inputs always produce identical scores.
//
// A nil value and a value that normalizes to the empty string are both
// treated as absent. Both absent is a perfect match; absent versus present
// is a total miss.
func Compare(spec annotation.FieldSpec, pred, truth any) float64 {
	switch spec.Kind {
	case annotation.KindNumeric:
		return compareNumeric(pred, truth)
	case annotation.KindSet:
		return compareSet(pred, truth)
	}

	predNorm := normalizeValue(pred)
	truthNorm := normalizeValue(truth)
	if predNorm == "" && truthNorm == "" {
		return 1.0
	}
	if predNorm == "" || truthNorm == "" {
		return 0.0
	}

	switch spec.Kind {
	case annotation.KindExact, annotation.KindCategory:
		if predNorm == truthNorm {
			return 1.0
		}
		return 0.0
	case annotation.KindFuzzy:
		score := tokenSimilarity(predNorm, truthNorm)
		floor := spec.Floor
		if floor <= 0 {
			floor = defaultFuzzyFloor
		}
		if score < floor {
			return 0.0
		}
		return score
	case annotation.KindText:
		return tokenSimilarity(predNorm, truthNorm)
	default:
		if predNorm == truthNorm {
			return 1.0
		}
		return 0.0
	}
}

// normalizeValue lowercases, collapses whitespace, and strips list
// punctuation, mirroring how the curators' values are normalized.
func normalizeValue(v any) string {
	if v == nil {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(stringify(v)))
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = punctRE.ReplaceAllString(s, "")
	return s
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// tokenSimilarity scores two normalized strings: exact match, then
// substring containment, then token-set Jaccard overlap.
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}
	return jaccard(strings.Fields(a), strings.Fields(b))
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}
	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// compareSet splits both values on list delimiters before any punctuation
// stripping, then scores the Jaccard overlap of the normalized tokens.
func compareSet(pred, truth any) float64 {
	predSet := splitSet(pred)
	truthSet := splitSet(truth)
	if len(predSet) == 0 && len(truthSet) == 0 {
		return 1.0
	}
	if len(predSet) == 0 || len(truthSet) == 0 {
		return 0.0
	}
	return jaccard(predSet, truthSet)
}

// splitSet breaks a delimiter-joined list into normalized tokens. The "+"
// continuation used in combination allele notation is folded away.
func splitSet(v any) []string {
	if v == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(stringify(v)))
	parts := setSplitRE.Split(s, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "+"))
		if p != "" {
			tokens = append(tokens, whitespaceRE.ReplaceAllString(p, " "))
		}
	}
	return tokens
}

// compareNumeric parses numbers out of either value and scores them on
// tolerance bands: equal is 1.0, within 5% relative difference is 0.9,
// within 10% is 0.8, anything wider is 0.
func compareNumeric(pred, truth any) float64 {
	predNorm := normalizeValue(pred)
	truthNorm := normalizeValue(truth)
	if predNorm == "" && truthNorm == "" {
		return 1.0
	}
	if predNorm == "" || truthNorm == "" {
		return 0.0
	}

	predNum, predOK := parseNumeric(pred)
	truthNum, truthOK := parseNumeric(truth)
	if !predOK || !truthOK {
		// Values that don't parse fall back to normalized equality.
		if predNorm == truthNorm {
			return 1.0
		}
		return 0.0
	}
	if truthNum == 0 && predNum == 0 {
		return 1.0
	}
	if truthNum == 0 || predNum == 0 {
		return 0.0
	}

	pctDiff := math.Abs(truthNum-predNum) / math.Abs(truthNum)
	switch {
	case predNum == truthNum:
		return 1.0
	case pctDiff <= 0.05:
		return 0.9
	case pctDiff <= 0.10:
		return 0.8
	default:
		return 0.0
	}
}

// parseNumeric extracts a float from a number or a numeric string,
// tolerating thousands separators and scientific notation.
func parseNumeric(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		cleaned := numericJunkRE.ReplaceAllString(strings.TrimSpace(t), "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// internal/groundtruth/store.go

// Package groundtruth loads and serves the curated annotation sets that
// predictions are benchmarked against, keyed by PMCID.
package groundtruth

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pgxlab/annobench/internal/annotation"
)

// metadataKey marks the bookkeeping entry normalization runs prepend to the
// ground-truth file; it is not a PMCID.
const metadataKey = "_metadata"

// Store holds the ground-truth documents for a benchmark set. It is
// immutable after Load and safe for concurrent readers.
type Store struct {
	source string
	docs   map[string]annotation.Document
}

// Load reads ground truth from the first path that exists, preferring the
// term-normalized file over the raw export when both are present.
func Load(paths ...string) (*Store, error) {
	var path string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			path = p
			break
		}
	}
	if path == "" {
		return nil, fmt.Errorf("ground truth not found, checked: %v", paths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground truth %s: %w", path, err)
	}

	var raw map[string]annotation.Document
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ground truth %s: %w", path, err)
	}
	delete(raw, metadataKey)

	return &Store{source: path, docs: raw}, nil
}

// Source returns the path the store was loaded from.
func (s *Store) Source() string { return s.source }

// Lookup returns the ground-truth document for a PMCID. A false return is
// "nothing to benchmark", not an error.
func (s *Store) Lookup(pmcid string) (annotation.Document, bool) {
	doc, ok := s.docs[pmcid]
	return doc, ok
}

// Has reports whether ground truth exists for a PMCID.
func (s *Store) Has(pmcid string) bool {
	_, ok := s.docs[pmcid]
	return ok
}

// PMCIDs returns every document id in the set, sorted for deterministic
// pipeline ordering.
func (s *Store) PMCIDs() []string {
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

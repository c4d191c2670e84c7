// internal/extraction/extraction.go

// Package extraction defines the boundary to the LLM that produces
// structured annotations from article text. The pipeline treats the
// extractor as an external collaborator that either returns a validated
// annotation document or fails the document.
package extraction

import (
	"context"
	"fmt"
	"os"

	"github.com/pgxlab/annobench/internal/annotation"
)

// Extractor is the interface every extraction backend must implement.
type Extractor interface {
	// EnsureModelReady checks that the extraction model can be served,
	// loading it if necessary.
	EnsureModelReady(ctx context.Context) error
	// Extract runs the model over one article and returns the parsed,
	// schema-validated annotation document.
	Extract(ctx context.Context, pmcid, article string) (annotation.Document, error)
	// Close cleans up any resources used by the extractor.
	Close() error
}

// LoadArticle reads a PMCID's full text from the first path that exists.
func LoadArticle(paths ...string) (string, error) {
	var lastErr error
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate paths")
	}
	return "", fmt.Errorf("load article: %w", lastErr)
}

// internal/extraction/factory.go
package extraction

import (
	"fmt"
	"strings"

	"github.com/pgxlab/annobench/internal/appconfig"
)

// New selects and configures the extractor backend named in the
// configuration. Ollama-compatible hosts are the only supported backend.
func New(cfg *appconfig.Config) (Extractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to extraction factory")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Extractor.Type)) {
	case "", "ollama":
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported extractor type: %s", cfg.Extractor.Type)
	}
}

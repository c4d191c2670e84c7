// internal/extraction/ollama.go
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pgxlab/annobench/internal/annotation"
	"github.com/pgxlab/annobench/internal/appconfig"
	"github.com/pgxlab/annobench/internal/logging"
)

// defaultSystemPrompt instructs the model to answer with the annotation
// document shape the scorer consumes. Configs usually override it with the
// tuned prompt under study.
const defaultSystemPrompt = `You are a pharmacogenomics curator. Extract every variant annotation ` +
	`from the article and respond with a single JSON object using the keys ` +
	`var_pheno_ann, var_drug_ann, var_fa_ann, and study_parameters, each an array of objects. ` +
	`Use null for fields the article does not state.`

// OllamaExtractor implements Extractor against an Ollama-compatible HTTP API
// in JSON mode.
type OllamaExtractor struct {
	host    appconfig.Extractor
	client  *http.Client
	timeout time.Duration
	debug   bool
}

// NewOllama constructs an extractor configured with the application's
// request timeout.
func NewOllama(cfg *appconfig.Config) *OllamaExtractor {
	timeout := cfg.RequestTimeout()
	return &OllamaExtractor{
		host: cfg.Extractor,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model         string `json:"model"`
	Response      string `json:"response"`
	Done          bool   `json:"done"`
	TotalDuration int64  `json:"total_duration"`
	EvalCount     int    `json:"eval_count"`
}

type pullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// EnsureModelReady asks the host to load the extraction model.
func (e *OllamaExtractor) EnsureModelReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(pullRequest{Model: e.host.Model, Stream: false})
	if err != nil {
		return err
	}
	endpoint := e.host.URL + "/api/pull"
	logging.LogRequest("APP->LLM", e.host.Name, e.host.Model, "", map[string]string{"method": http.MethodPost, "url": endpoint})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ensure model %s on %s: %w", e.host.Model, e.host.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ensure model %s: status %d: %s", e.host.Model, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}

// Extract sends one article through /api/generate in JSON mode and parses
// the response into a validated annotation document.
func (e *OllamaExtractor) Extract(ctx context.Context, pmcid, article string) (annotation.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	system := e.host.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}

	body, err := json.Marshal(generateRequest{
		Model:  e.host.Model,
		System: system,
		Prompt: article,
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, err
	}

	endpoint := e.host.URL + "/api/generate"
	logging.LogRequest("APP->LLM", e.host.Name, e.host.Model, pmcid, map[string]any{
		"method": http.MethodPost, "url": endpoint, "promptBytes": len(article),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pmcid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("extract %s: status %d: %s", pmcid, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("extract %s: decode response: %w", pmcid, err)
	}
	if e.debug {
		logging.LogRequest("LLM->APP", e.host.Name, gen.Model, pmcid, map[string]any{
			"evalCount": gen.EvalCount, "totalDuration": gen.TotalDuration,
		})
	}

	doc, err := annotation.ParseDocument([]byte(gen.Response))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pmcid, err)
	}
	return doc, nil
}

// Close releases the extractor's idle connections.
func (e *OllamaExtractor) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

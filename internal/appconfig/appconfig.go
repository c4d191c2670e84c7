// internal/appconfig/appconfig.go

// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for extraction HTTP requests.
	// Extraction of a full article can run for minutes on slow hosts.
	defaultRequestTimeout = 600 * time.Second
	// defaultConcurrency bounds in-flight extraction calls per pipeline run.
	defaultConcurrency = 3
	// defaultServerPort is the API server's listen port.
	defaultServerPort = 8080
)

// Config represents the top-level application configuration.
type Config struct {
	Extractor             Extractor `json:"extractor"`
	Debug                 bool      `json:"debug"`
	DataDir               string    `json:"dataDir"`
	GroundTruth           string    `json:"groundTruth,omitempty"`
	GroundTruthNormalized string    `json:"groundTruthNormalized,omitempty"`
	ResultsDir            string    `json:"resultsDir,omitempty"`
	Concurrency           int       `json:"concurrency,omitempty"`
	TimeoutSeconds        int       `json:"timeout,omitempty"`
	LogFile               string    `json:"logFile,omitempty"`
	Server                Server    `json:"server"`
	ConfigPath            string    `json:"-"`
}

// Extractor describes the LLM host used for annotation extraction.
type Extractor struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Type         string `json:"type"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemprompt,omitempty"`
}

// Server holds the API server's listen address.
type Server struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// RequestTimeout returns the timeout duration for extraction HTTP requests,
// falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConcurrencyLimit returns the configured per-run extraction concurrency.
func (c Config) ConcurrencyLimit() int {
	if c.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Concurrency
}

// LogFilePath returns the path to the application log file, applying a
// default if not set.
func (c Config) LogFilePath() string {
	if path := strings.TrimSpace(c.LogFile); path != "" {
		return path
	}
	return "annobench.log"
}

// GroundTruthPaths returns the candidate ground-truth files in preference
// order: the term-normalized file first, then the raw export.
func (c Config) GroundTruthPaths() []string {
	normalized := c.GroundTruthNormalized
	if normalized == "" {
		normalized = "data/ground_truth_normalized.json"
	}
	raw := c.GroundTruth
	if raw == "" {
		raw = "data/ground_truth.json"
	}
	return []string{normalized, raw}
}

// ResultsPath returns the directory benchmark artifacts are written to.
func (c Config) ResultsPath() string {
	if c.ResultsDir != "" {
		return c.ResultsDir
	}
	return "results"
}

// ArticlePath returns where a PMCID's full text is expected on disk.
func (c Config) ArticlePath(pmcid string) string {
	dir := c.DataDir
	if dir == "" {
		dir = "data/articles"
	}
	return filepath.Join(dir, pmcid+".txt")
}

// ArticleCandidates returns the candidate full-text files for a PMCID in
// preference order: plain text first, then the PMC XML export.
func (c Config) ArticleCandidates(pmcid string) []string {
	dir := c.DataDir
	if dir == "" {
		dir = "data/articles"
	}
	return []string{
		filepath.Join(dir, pmcid+".txt"),
		filepath.Join(dir, pmcid+".xml"),
	}
}

// ListenAddr returns the API server's host:port.
func (c Config) ListenAddr() string {
	host := c.Server.Host
	port := c.Server.Port
	if port <= 0 {
		port = defaultServerPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Extractor.URL) == "" {
		return fmt.Errorf("extractor.url is required")
	}
	if strings.TrimSpace(c.Extractor.Model) == "" {
		return fmt.Errorf("extractor.model is required")
	}
	return nil
}

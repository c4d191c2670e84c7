// internal/commands/wiring.go
package annobench

import (
	"fmt"

	"github.com/pgxlab/annobench/internal/annotation"
	"github.com/pgxlab/annobench/internal/appconfig"
	"github.com/pgxlab/annobench/internal/extraction"
	"github.com/pgxlab/annobench/internal/groundtruth"
	"github.com/pgxlab/annobench/internal/pipeline"
	"github.com/pgxlab/annobench/internal/report"
)

// buildOrchestrator assembles a pipeline orchestrator from the loaded
// configuration: extractor backend, ground-truth store, article loader and
// results writer.
func buildOrchestrator(cfg *appconfig.Config) (*pipeline.Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is not initialized")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	extractor, err := extraction.New(cfg)
	if err != nil {
		return nil, err
	}

	store, err := groundtruth.Load(cfg.GroundTruthPaths()...)
	if err != nil {
		return nil, err
	}

	resultsDir := cfg.ResultsPath()
	return &pipeline.Orchestrator{
		Registry:    pipeline.NewRegistry(),
		Streamer:    pipeline.NewStreamer(),
		Extractor:   extractor,
		GroundTruth: store,
		Tasks:       annotation.Tasks(),
		LoadArticle: func(pmcid string) (string, error) {
			return extraction.LoadArticle(cfg.ArticleCandidates(pmcid)...)
		},
		SaveResult: func(jobID string, result *pipeline.RunResult) (string, error) {
			return report.WriteResults(resultsDir, jobID, result)
		},
	}, nil
}

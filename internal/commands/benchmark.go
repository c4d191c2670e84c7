// internal/commands/benchmark.go
package annobench

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pgxlab/annobench/internal/annotation"
	"github.com/pgxlab/annobench/internal/benchmark"
	"github.com/pgxlab/annobench/internal/groundtruth"
	"github.com/pgxlab/annobench/internal/pipeline"
	"github.com/pgxlab/annobench/internal/report"
)

var (
	benchmarkOutput string
	benchmarkPMCID  string
)

// benchmarkCmd scores an existing predictions file against ground truth
// without running extraction. The file maps PMCIDs to annotation documents,
// the same shape the pipeline's combining stage produces.
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark <predictions.json>",
	Short: "Score a predictions file against ground truth",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration is not initialized")
		}

		store, err := groundtruth.Load(cfg.GroundTruthPaths()...)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read predictions: %w", err)
		}
		var predictions map[string]annotation.Document
		if err := json.Unmarshal(data, &predictions); err != nil {
			return fmt.Errorf("parse predictions: %w", err)
		}
		if len(predictions) == 0 {
			return fmt.Errorf("predictions file %s is empty", args[0])
		}
		if benchmarkPMCID != "" {
			doc, ok := predictions[benchmarkPMCID]
			if !ok {
				return fmt.Errorf("predictions file has no entry for %s", benchmarkPMCID)
			}
			predictions = map[string]annotation.Document{benchmarkPMCID: doc}
		}

		tasks := annotation.Tasks()
		perDocument := make(map[string]benchmark.DocumentResult, len(predictions))
		var skipped []string
		for pmcid, doc := range predictions {
			truth, ok := store.Lookup(pmcid)
			if !ok {
				skipped = append(skipped, pmcid)
				continue
			}
			perDocument[pmcid] = benchmark.ScoreDocument(tasks, doc, truth)
		}
		sort.Strings(skipped)
		for _, pmcid := range skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "no ground truth for %s, skipping\n", pmcid)
		}
		if len(perDocument) == 0 {
			return fmt.Errorf("no predictions matched the ground-truth set")
		}

		pmcids := make([]string, 0, len(perDocument))
		for pmcid := range perDocument {
			pmcids = append(pmcids, pmcid)
		}
		sort.Strings(pmcids)

		result := &pipeline.RunResult{
			PMCIDs:    pmcids,
			Documents: perDocument,
			Summary:   benchmark.Summarize(perDocument),
		}
		report.Render(cmd.OutOrStdout(), result)

		if benchmarkOutput != "" {
			path, err := report.WriteResults(benchmarkOutput, "offline", result)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nresults written to %s\n", path)
		}
		return nil
	},
}

func init() {
	benchmarkCmd.Flags().StringVar(&benchmarkPMCID, "pmcid", "", "score only this PMCID from the predictions file")
	benchmarkCmd.Flags().StringVar(&benchmarkOutput, "output", "", "directory to write the results artifact to")
	rootCmd.AddCommand(benchmarkCmd)
}

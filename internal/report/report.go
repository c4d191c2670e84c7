// internal/report/report.go

// Package report renders pipeline results for the terminal and persists
// them as JSON artifacts under the results directory.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/pgxlab/annobench/internal/pipeline"
	"github.com/pgxlab/annobench/internal/util"
)

// maxFailureWidth caps failure messages in the terminal table.
const maxFailureWidth = 72

// WriteResults persists a run result as an indented JSON artifact and
// returns the path it was written to.
func WriteResults(resultsDir, jobID string, result *pipeline.RunResult) (string, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating results directory: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	name := fmt.Sprintf("pipeline_benchmark_%s_%s.json", stamp, Slugify(jobID))
	path := filepath.Join(resultsDir, name)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding results: %w", err)
	}
	if err := util.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("error writing results to file: %w", err)
	}
	return path, nil
}

// Slugify converts a string into a filename-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	re := regexp.MustCompile(`[^a-z0-9_]+`)
	s = re.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	taskStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Render prints a run summary: per-task means, the overall score, and any
// per-document failures.
func Render(w io.Writer, result *pipeline.RunResult) {
	if result == nil {
		fmt.Fprintln(w, "no results")
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Benchmark results (%d documents)", len(result.PMCIDs))))
	if result.Model != "" {
		fmt.Fprintf(w, "  model: %s\n", result.Model)
	}
	fmt.Fprintln(w)

	var tasks []string
	for name := range result.Summary.Tasks {
		tasks = append(tasks, name)
	}
	sort.Strings(tasks)

	for _, name := range tasks {
		ts := result.Summary.Tasks[name]
		line := fmt.Sprintf("  %-20s %s  (%d documents", name, formatScore(ts.Mean), ts.Documents)
		if ts.Errors > 0 {
			line += fmt.Sprintf(", %d errored", ts.Errors)
		}
		line += ")"
		fmt.Fprintln(w, taskStyle.Render(line))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-20s %s\n", "overall", formatScore(result.Summary.OverallScore))

	if len(result.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Extraction failures (%d)", len(result.Failures))))
		var failed []string
		for pmcid := range result.Failures {
			failed = append(failed, pmcid)
		}
		sort.Strings(failed)
		for _, pmcid := range failed {
			fmt.Fprintf(w, "  %s: %s\n", pmcid, util.TruncateRunes(result.Failures[pmcid], maxFailureWidth))
		}
	}

	if !result.FinishedAt.IsZero() && !result.StartedAt.IsZero() {
		fmt.Fprintf(w, "\n  elapsed: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	}
}

// formatScore colors a score by band: green at or above 0.8, yellow at or
// above 0.5, red below.
func formatScore(score float64) string {
	text := fmt.Sprintf("%.4f", score)
	switch {
	case score >= 0.8:
		return color.GreenString(text)
	case score >= 0.5:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}

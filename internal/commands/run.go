// internal/commands/run.go
package annobench

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgxlab/annobench/internal/pipeline"
	"github.com/pgxlab/annobench/internal/report"
)

var runPMCIDs []string

// runCmd executes a full pipeline run in the foreground, streaming job
// messages to the terminal and rendering the summary when it finishes.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the extraction pipeline and score the results",
	Long: `Extract annotations for the selected articles, score them against
ground truth and write the results artifact. With no --pmcid flags every
document in the ground-truth set is processed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		o, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer o.Extractor.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		id, err := o.Start(ctx, pipeline.RunRequest{
			PMCIDs:      runPMCIDs,
			Model:       cfg.Extractor.Model,
			Concurrency: cfg.ConcurrencyLimit(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job %s started\n", id)

		events, cancel := o.Streamer.Subscribe(id)
		defer cancel()

		// A SIGINT requests cooperative cancellation; in-flight extractions
		// drain before the job reports cancelled.
		go func() {
			<-ctx.Done()
			o.Registry.RequestCancel(id)
		}()

		var last pipeline.Job
		seen := 0
		for snapshot := range events {
			for _, msg := range snapshot.Messages[seen:] {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s\n", snapshot.Stage, msg.Text)
			}
			seen = len(snapshot.Messages)
			last = snapshot
		}

		switch last.Status {
		case pipeline.StatusCompleted:
			fmt.Fprintln(cmd.OutOrStdout())
			report.Render(cmd.OutOrStdout(), last.Result)
			return nil
		case pipeline.StatusCancelled:
			return fmt.Errorf("job %s cancelled", id)
		default:
			return fmt.Errorf("job %s failed: %s", id, last.Error)
		}
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runPMCIDs, "pmcid", nil, "PMCID to process (repeatable; default: all with ground truth)")
	rootCmd.AddCommand(runCmd)
}

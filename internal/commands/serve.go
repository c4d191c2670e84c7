// internal/commands/serve.go
package annobench

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgxlab/annobench/internal/server"
)

// serveCmd runs the HTTP API: pipeline jobs, event streams and synchronous
// benchmark scoring.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline and benchmark HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		o, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}
		defer o.Extractor.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.New(o).ListenAndServe(ctx, cfg.ListenAddr())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

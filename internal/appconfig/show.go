// internal/appconfig/show.go
package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		cfg = &Config{}
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Extractor:        %s (%s)\n", cfg.Extractor.Name, cfg.Extractor.URL)
	fmt.Fprintf(out, "  Model:            %s\n", cfg.Extractor.Model)
	fmt.Fprintf(out, "  Data Dir:         %s\n", cfg.DataDir)
	fmt.Fprintf(out, "  Ground Truth:     %v\n", cfg.GroundTruthPaths())
	fmt.Fprintf(out, "  Results Dir:      %s\n", cfg.ResultsPath())
	fmt.Fprintf(out, "  Concurrency:      %d\n", cfg.ConcurrencyLimit())
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Listen Addr:      %s\n", cfg.ListenAddr())
}

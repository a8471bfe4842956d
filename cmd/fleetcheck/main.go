// Command fleetcheck analyzes truck GPS report exports from the terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/criskgs/analiza-camion/internal/config"
	_ "github.com/criskgs/analiza-camion/internal/core/decoders" // Register file decoders
	"github.com/criskgs/analiza-camion/internal/logging"
)

func main() {
	// .env is optional; real environment variables win over it here.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fleetcheck: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "fleetcheck",
		Short: "Analyze truck GPS report exports",
		Long: `fleetcheck reads fleet tracking report exports (.xlsx, .csv, .json, .txt),
aggregates distance and engine times per vehicle and flags trucks that drove
too little or idled too long.

Examples:
  fleetcheck analyze week.xlsx
  fleetcheck analyze --min-km 800 --idle-mode days --idle-days 7 a.xlsx b.xlsx
  fleetcheck analyze --pdf report.pdf --xlsx report.xlsx week.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so stdout stays the report.
			slog.SetDefault(logging.New(os.Stderr, logLevel, cfg.Logging.Format))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd(&cfg.Analysis))
	return root
}

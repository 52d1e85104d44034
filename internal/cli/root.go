package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hfsrb",
	Short: "Facility survey schema compiler and mapping engine",
	Long: `hfsrb compiles Markdown field dictionaries into JSON Schemas and maps
per-facility survey records onto them.

A project directory holds:
  schemas/<name>/README.md    field dictionaries
  mappings/<type>[_<year>]    mapping documents (.json, .yaml, .yml)
  data/<year>/<type>/<id>/    entity records (data.json)

Payload envelopes are written next to each data.json and, when configured,
to Postgres, SQLite or S3. Settings live in hfsrb.yaml; see 'hfsrb compile
--help' for the compile phase and 'hfsrb map --help' for the mapping phase.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - No mapping document resolves
  12 - Schema named by a mapping is missing
  13 - Payload failed validation
  14 - Malformed dictionary or JSON document
  15 - Payload sink write failed
  16 - Batch finished with per-item failures`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the run; items
// already in flight finish before it returns.
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// rootFlags are shared by every subcommand.
var rootFlags struct {
	verbose bool
	project string
	json    bool
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.project, "project", "C", ".", "Project directory")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.json, "json", false, "Write the run report to stdout as JSON")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

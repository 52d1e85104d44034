package cli

import (
	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/metrics"
	"github.com/hfsrb/hfsrb/internal/services"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile field dictionaries into JSON Schemas",
	Long: `Compile every schemas/<name>/README.md into a draft-07 JSON Schema and its
relaxed ingestion variant.

Outputs go to paths.compiled and paths.ingestion (schemas/json and
schemas/json_ingestion by default). Files whose content would not change are
left untouched. A malformed dictionary is reported and skipped; the others
still compile, and the command exits with code 16.

Examples:
  hfsrb compile
  hfsrb compile -C ./survey-project --json`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd, nil)
	if err != nil {
		return err
	}

	builder := services.NewBuilder(p.fs, p.logger, metrics.New())
	report, err := builder.Compile(commandContext(cmd), p.compileConfig())
	if err != nil {
		return err
	}

	if rootFlags.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printCompileReport(p, printer(cmd), report)
	}
	return report.Err()
}

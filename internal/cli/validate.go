package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/services"
	"github.com/hfsrb/hfsrb/internal/tui"
	"github.com/hfsrb/hfsrb/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema> <payload>",
	Short: "Validate one payload file against a schema",
	Long: `Validate a payload against a compiled schema.

<schema> is either a schema name, resolved to <paths.compiled>/<name>.schema.json,
or a path to a schema file. <payload> is a bare payload object or a stored
envelope (schema_payload.json), in which case its "payload" section is checked.

Exits with code 13 when the payload has violations.

Examples:
  hfsrb validate ahq-long data/2024/Hospital/0001234-mercy/schema_payload.json
  hfsrb validate schemas/json_ingestion/ltc3.schema.json payload.json --json`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeSchemaNames,
	RunE:              runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd, nil)
	if err != nil {
		return err
	}

	schemaPath, err := filepath.Abs(services.ResolveSchemaPath(args[0], p.paths.Compiled))
	if err != nil {
		return err
	}
	payloadPath, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}

	result, err := services.ValidateFile(p.fs, schemaPath, payloadPath)
	if err != nil {
		return err
	}

	if rootFlags.json {
		if err := writeJSON(cmd, result); err != nil {
			return err
		}
	} else {
		out := printer(cmd)
		if result.Result.Valid {
			out.Item(tui.StatusOK, "%s is valid against %s", args[1], p.relative(schemaPath))
		} else {
			out.Item(tui.StatusFail, "%s has %d violation(s) against %s", args[1], len(result.Result.Violations), p.relative(schemaPath))
			printViolations(cmd.ErrOrStderr(), result)
		}
	}

	if err := validate.AsError(p.relative(schemaPath), result.Result); err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	return nil
}

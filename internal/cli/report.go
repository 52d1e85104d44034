package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/report"
	"github.com/hfsrb/hfsrb/internal/tui"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reports over stored payload envelopes",
	Long: `Report commands.

Available commands:
  identity  List envelopes missing identity properties`,
}

var reportIdentityCmd = &cobra.Command{
	Use:   "identity",
	Short: "List envelopes whose payload lacks identity properties",
	Long: `Check every schema_payload.json for the identity properties configured per
facility type (identity.<type> in hfsrb.yaml). A property is missing when it
is absent, null or blank.

With --strict the command exits with code 13 when any envelope has gaps.

Examples:
  hfsrb report identity --year 2024
  hfsrb report identity --type ESRD --json`,
	Args: cobra.NoArgs,
	RunE: runReportIdentity,
}

var reportIdentityFlags struct {
	filterFlags
	strict bool
}

func init() {
	reportIdentityFlags.filterFlags.register(reportIdentityCmd)
	reportIdentityCmd.Flags().BoolVar(&reportIdentityFlags.strict, "strict", false, "Fail when any envelope is missing identity properties")
	reportCmd.AddCommand(reportIdentityCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportIdentity(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd, nil)
	if err != nil {
		return err
	}

	r, err := report.Identity(commandContext(cmd), p.fs, p.paths.Data, reportIdentityFlags.filter(), p.cfg.IdentityFields)
	if err != nil {
		return err
	}

	if rootFlags.json {
		if err := writeJSON(cmd, r); err != nil {
			return err
		}
	} else {
		out := printer(cmd)
		for _, g := range r.Gaps {
			out.Item(tui.StatusWarn, "%s: missing %s", p.relative(g.Path), strings.Join(g.Missing, ", "))
		}
		for _, path := range r.Unreadable {
			out.Item(tui.StatusFail, "%s: unreadable envelope", p.relative(path))
		}
		lines := []tui.Line{
			{Label: "checked", Value: fmt.Sprint(r.Checked)},
			{Label: "incomplete", Value: fmt.Sprint(len(r.Gaps)), Status: count(len(r.Gaps), tui.StatusOK, tui.StatusWarn)},
		}
		for _, f := range r.Fields() {
			lines = append(lines, tui.Line{Label: "  " + f, Value: fmt.Sprint(r.MissingByField[f])})
		}
		out.Summary("Identity completeness", lines)
	}

	if reportIdentityFlags.strict && !r.Complete() {
		return fmt.Errorf("%w: %d envelope(s) missing identity properties, %d unreadable",
			hfsrb.ErrValidation, len(r.Gaps), len(r.Unreadable))
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/services"
	"github.com/hfsrb/hfsrb/internal/tui"
)

var variantCmd = &cobra.Command{
	Use:   "variant",
	Short: "Schema variant operations",
	Long: `Schema variant commands.

Available commands:
  tag   Compute variant tags from the tagging rules in hfsrb.yaml`,
}

var variantTagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Compute schema variant tags for entity records",
	Long: `Compute each record's schema variant tag from the tagging rules in
hfsrb.yaml (variants.<type>.tagging) and show what would change.

By default this previews only. With --write, records whose tag (or recorded
measure) changed are rewritten in place; everything outside "meta" is kept.

Examples:
  # Preview tags for 2024 hospitals
  hfsrb variant tag --year 2024 --type Hospital

  # Persist tags
  hfsrb variant tag --write`,
	Args: cobra.NoArgs,
	RunE: runVariantTag,
}

var variantTagFlags struct {
	filterFlags
	write bool
}

func init() {
	variantTagFlags.filterFlags.register(variantTagCmd)
	variantTagCmd.Flags().BoolVar(&variantTagFlags.write, "write", false, "Write changed tags into data.json")
	variantCmd.AddCommand(variantTagCmd)
	rootCmd.AddCommand(variantCmd)
}

func runVariantTag(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd, nil)
	if err != nil {
		return err
	}

	tagger := services.NewVariantTagger(p.fs, p.cfg.VariantRules(), p.logger)
	report, err := tagger.Run(commandContext(cmd), p.paths.Data, variantTagFlags.filter(), variantTagFlags.write)
	if err != nil {
		return err
	}

	if rootFlags.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
		return report.Err()
	}

	out := printer(cmd)
	for _, r := range report.Results {
		if !r.Changed {
			continue
		}
		from := r.Previous
		if from == "" {
			from = "(none)"
		}
		status := tui.StatusWarn
		if r.Written {
			status = tui.StatusOK
		}
		out.Item(status, "%s: %s %s %s", p.relative(r.Path), from, tui.SymbolArrowRight, r.Tag)
	}
	for _, f := range report.Failures {
		out.Item(tui.StatusFail, "%s: %v", p.relative(f.Path), f.Err)
	}

	action := "would change (use --write to persist)"
	if variantTagFlags.write {
		action = "changed"
	}
	out.Summary("Variant tags", []tui.Line{
		{Label: "tagged", Value: fmt.Sprint(len(report.Results))},
		{Label: action, Value: fmt.Sprint(report.Changed)},
		{Label: "failed", Value: fmt.Sprint(len(report.Failures)), Status: count(len(report.Failures), tui.StatusInfo, tui.StatusFail)},
	})
	return report.Err()
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/services"
	"github.com/hfsrb/hfsrb/internal/tui"
)

// writeJSON writes v to stdout as indented JSON.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func printer(cmd *cobra.Command) *tui.Printer {
	return tui.NewPrinter(cmd.ErrOrStderr())
}

func count(n int, ok, bad tui.Status) tui.Status {
	if n == 0 {
		return ok
	}
	return bad
}

func printCompileReport(p *project, out *tui.Printer, r *services.CompileReport) {
	written := 0
	for _, s := range r.Schemas {
		if len(s.Written) > 0 {
			written++
			out.Item(tui.StatusOK, "%s (%d fields, %d required)", s.Name, s.Fields, s.Required)
		}
	}
	for _, f := range r.Failures {
		out.Item(tui.StatusFail, "%s: %v", p.relative(f.Path), f.Err)
	}
	out.Summary("Compile", []tui.Line{
		{Label: "schemas", Value: fmt.Sprint(len(r.Schemas)), Status: tui.StatusOK},
		{Label: "written", Value: fmt.Sprint(written)},
		{Label: "unchanged", Value: fmt.Sprint(len(r.Schemas) - written)},
		{Label: "failed", Value: fmt.Sprint(len(r.Failures)), Status: count(len(r.Failures), tui.StatusInfo, tui.StatusFail)},
	})
}

func printMapReport(p *project, out *tui.Printer, r *services.MapReport) {
	for _, e := range r.Entities {
		switch {
		case e.Outcome == services.OutcomeFailed:
			out.Item(tui.StatusFail, "%s: %s", p.relative(e.Path), e.Error)
		case len(e.Violations) > 0:
			out.Item(tui.StatusWarn, "%s: %d violation(s) against %s", p.relative(e.Path), len(e.Violations), e.Schema)
		}
	}
	out.Summary("Mapping", []tui.Line{
		{Label: "entities", Value: fmt.Sprint(len(r.Entities))},
		{Label: "mapped", Value: fmt.Sprint(r.Mapped), Status: tui.StatusOK},
		{Label: "skipped", Value: fmt.Sprint(r.Skipped), Status: count(r.Skipped, tui.StatusInfo, tui.StatusWarn)},
		{Label: "invalid", Value: fmt.Sprint(r.Invalid), Status: count(r.Invalid, tui.StatusInfo, tui.StatusWarn)},
		{Label: "failed", Value: fmt.Sprint(r.Failed), Status: count(r.Failed, tui.StatusInfo, tui.StatusFail)},
	})
}

func printViolations(w io.Writer, r *services.FileValidation) {
	for _, v := range r.Result.Violations {
		fmt.Fprintf(w, "  %s %s [%s]\n", tui.SymbolBullet, v.String(), v.Rule)
	}
}

package services

import (
	"context"
	"errors"
)

// BuildReport joins the reports of both phases.
type BuildReport struct {
	Compile *CompileReport `json:"compile"`
	Map     *MapReport     `json:"map"`
}

// Err joins the errors of both phases; nil when neither reported failures.
func (r *BuildReport) Err() error {
	var errs []error
	if r.Compile != nil {
		errs = append(errs, r.Compile.Err())
	}
	if r.Map != nil {
		errs = append(errs, r.Map.Err())
	}
	return errors.Join(errs...)
}

// Build compiles every dictionary and then maps every selected record.
// No record is mapped until the compile phase has finished. A dictionary
// that fails to compile does not stop the mapping phase and its previous
// output is left in place: entities map against that earlier schema when one
// exists and fail schema resolution otherwise.
func Build(ctx context.Context, b *Builder, compile CompileConfig, m *Mapper, opts MapOptions) (*BuildReport, error) {
	report := &BuildReport{}

	var err error
	report.Compile, err = b.Compile(ctx, compile)
	if err != nil {
		return report, err
	}

	report.Map, err = m.Run(ctx, opts)
	return report, err
}

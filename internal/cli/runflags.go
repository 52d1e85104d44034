package cli

import (
	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/config"
	"github.com/hfsrb/hfsrb/internal/files/scanner"
	"github.com/hfsrb/hfsrb/internal/services"
)

// filterFlags select records by year and facility type.
type filterFlags struct {
	years []int
	types []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&f.years, "year", nil, "Only process these years (repeatable)")
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "Only process these facility types (repeatable, case-insensitive)")
	_ = cmd.RegisterFlagCompletionFunc("type", completeFacilityTypes)
}

func (f *filterFlags) filter() scanner.Filter {
	return scanner.Filter{Years: f.years, Types: f.types}
}

// mapFlags are shared by map and build.
type mapFlags struct {
	filterFlags
	validate      bool
	ingestion     bool
	normalizeKeys bool
	workers       int
	sinks         []string
	metricsFile   string
}

func (f *mapFlags) register(cmd *cobra.Command) {
	f.filterFlags.register(cmd)
	cmd.Flags().BoolVar(&f.validate, "validate", false, "Validate every payload against its schema (diagnostic only)")
	cmd.Flags().BoolVar(&f.ingestion, "ingestion", false, "Map against the relaxed ingestion schemas")
	cmd.Flags().BoolVar(&f.normalizeKeys, "normalize-keys", false, "Normalize record field keys to snake_case before mapping")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Entities mapped in parallel (default: workers from hfsrb.yaml, else one per CPU)")
	cmd.Flags().StringSliceVar(&f.sinks, "sink", nil, "Payload sinks to write to, replacing sinks.enabled (file, postgres, sqlite, s3)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	_ = cmd.RegisterFlagCompletionFunc("sink", completeSinkNames)
}

func (f *mapFlags) override(cfg *config.ProjectConfig) {
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if len(f.sinks) > 0 {
		cfg.Sinks.Enabled = f.sinks
	}
}

func (f *mapFlags) options(cfg *config.ProjectConfig) services.MapOptions {
	return services.MapOptions{
		Filter:        f.filter(),
		Validate:      f.validate,
		Ingestion:     f.ingestion,
		NormalizeKeys: f.normalizeKeys,
		Workers:       cfg.EffectiveWorkers(),
	}
}

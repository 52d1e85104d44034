package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/metrics"
	"github.com/hfsrb/hfsrb/internal/services"
	"github.com/hfsrb/hfsrb/internal/store"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map entity records into schema payloads",
	Long: `Map every data/<year>/<type>/<facility>/data.json into a payload envelope.

For each record the mapping document is resolved from mappings/ (variant,
then type; year-specific files first), the schema variant is chosen from the
record's variant tag, and the resulting envelope is written to every enabled
sink. Records without a mapping document are skipped. Failures are reported
per record and do not stop the batch; the command then exits with code 16.

Examples:
  hfsrb map
  hfsrb map --year 2024 --type Hospital --validate
  hfsrb map --sink file --sink sqlite --workers 8
  hfsrb map --ingestion --metrics-file /var/lib/node_exporter/hfsrb.prom`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile every dictionary, then map every record",
	Long: `Run the compile phase to completion, then the mapping phase.

No record is mapped until every dictionary has been compiled. Accepts the
same flags as 'hfsrb map'.

Examples:
  hfsrb build --validate
  hfsrb build -C ./survey-project --json`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	mapCmdFlags   mapFlags
	buildCmdFlags mapFlags
)

func init() {
	mapCmdFlags.register(mapCmd)
	buildCmdFlags.register(buildCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(buildCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd, mapCmdFlags.override)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	m := metrics.New()

	mapper, closeSinks, err := newMapper(ctx, p, m)
	if err != nil {
		return err
	}
	defer closeSinks()

	report, err := mapper.Run(ctx, mapCmdFlags.options(p.cfg))
	if err != nil {
		return err
	}
	if err := writeMetrics(p, m, mapCmdFlags.metricsFile); err != nil {
		return err
	}

	if rootFlags.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printMapReport(p, printer(cmd), report)
	}
	return report.Err()
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd, buildCmdFlags.override)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	m := metrics.New()

	mapper, closeSinks, err := newMapper(ctx, p, m)
	if err != nil {
		return err
	}
	defer closeSinks()

	builder := services.NewBuilder(p.fs, p.logger, m)
	report, err := services.Build(ctx, builder, p.compileConfig(), mapper, buildCmdFlags.options(p.cfg))
	if err != nil {
		return err
	}
	if err := writeMetrics(p, m, buildCmdFlags.metricsFile); err != nil {
		return err
	}

	if rootFlags.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		out := printer(cmd)
		printCompileReport(p, out, report.Compile)
		printMapReport(p, out, report.Map)
	}
	return report.Err()
}

// newMapper opens the configured sinks and wires a Mapper over them. The
// returned func closes every sink and logs close failures.
func newMapper(ctx context.Context, p *project, m *metrics.Metrics) (*services.Mapper, func(), error) {
	sinks, err := store.Open(ctx, p.cfg.Sinks, store.Options{Root: p.root, FS: p.fs, Logger: p.logger})
	if err != nil {
		return nil, nil, err
	}
	for _, s := range sinks {
		p.logger.Verbose("Sink enabled: %s", s.Name())
	}
	closeSinks := func() {
		if err := store.CloseAll(sinks); err != nil {
			p.logger.Error("closing sinks: %v", err)
		}
	}
	return services.NewMapper(p.mapperConfig(), p.fs, sinks, p.logger, m), closeSinks, nil
}

func writeMetrics(p *project, m *metrics.Metrics, path string) error {
	if path == "" {
		return nil
	}
	if err := m.WriteTextfile(path); err != nil {
		return err
	}
	p.logger.Verbose("Metrics written to %s", path)
	return nil
}

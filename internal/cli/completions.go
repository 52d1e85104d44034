package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/config"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// sinkNames contains valid sink names for shell completion.
var sinkNames = []string{config.SinkFile, config.SinkPostgres, config.SinkSQLite, config.SinkS3}

// completionConfig loads the project configuration without validating it;
// completion must work on half-written projects.
func completionConfig() (*config.ProjectConfig, string) {
	root, err := filepath.Abs(rootFlags.project)
	if err != nil {
		return config.Defaults(), rootFlags.project
	}
	cfg, err := config.Load(root)
	if err != nil {
		return config.Defaults(), root
	}
	return cfg, root
}

func filterPrefix(candidates []string, toComplete string) []string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(toComplete)) {
			matches = append(matches, c)
		}
	}
	return matches
}

// completeFacilityTypes offers the facility types named in variants and identity.
func completeFacilityTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, _ := completionConfig()
	seen := map[string]bool{}
	for _, t := range cfg.VariantRules().Types() {
		seen[t] = true
	}
	for t := range cfg.Identity {
		seen[strings.ToLower(t)] = true
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return filterPrefix(types, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeSinkNames provides shell completion for --sink.
func completeSinkNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(sinkNames, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeSchemaNames completes compiled schema names for the first
// argument of validate and files for the second.
func completeSchemaNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	cfg, root := completionConfig()
	entries, err := os.ReadDir(cfg.Paths.Resolve(root).Compiled)
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), hfsrb.SchemaFileSuffix); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	return filterPrefix(names, toComplete), cobra.ShellCompDirectiveDefault
}

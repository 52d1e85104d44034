package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hfsrb/hfsrb/internal/config"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/logging"
	"github.com/hfsrb/hfsrb/internal/services"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// project is the resolved working context of one command.
type project struct {
	root   string
	cfg    *config.ProjectConfig
	paths  config.Paths
	fs     filesystem.FileSystemProvider
	logger hfsrb.Logger
}

// loadProject resolves the project directory, loads .env and hfsrb.yaml
// (falling back to the built-in defaults when the file is absent), applies
// environment overrides and validates the result. override runs before
// validation so flag values are checked too.
func loadProject(cmd *cobra.Command, override func(*config.ProjectConfig)) (*project, error) {
	logger := logging.NewConsoleLoggerTo(cmd.ErrOrStderr(), rootFlags.verbose)

	root, err := filepath.Abs(rootFlags.project)
	if err != nil {
		return nil, fmt.Errorf("%w: project directory %q: %v", hfsrb.ErrInvalidConfig, rootFlags.project, err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: project directory %s does not exist", hfsrb.ErrInvalidConfig, root)
	}

	_ = godotenv.Load(filepath.Join(root, ".env"))

	cfg, err := config.Load(root)
	switch {
	case errors.Is(err, hfsrb.ErrConfigNotFound):
		logger.Verbose("No %s in %s, using defaults", hfsrb.ConfigFileName, root)
		cfg = config.Defaults()
	case err != nil:
		return nil, err
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &project{
		root:   root,
		cfg:    cfg,
		paths:  cfg.Paths.Resolve(root),
		fs:     filesystem.NewOSFileSystem(),
		logger: logger,
	}
	logger.Verbose("Project: %s", root)
	logger.Verbose("Schemas: %s", p.paths.Schemas)
	logger.Verbose("Mappings: %s", p.paths.Mappings)
	logger.Verbose("Data: %s", p.paths.Data)
	return p, nil
}

func (p *project) compileConfig() services.CompileConfig {
	return services.CompileConfig{
		SchemasDir:   p.paths.Schemas,
		CompiledDir:  p.paths.Compiled,
		IngestionDir: p.paths.Ingestion,
		Compiler:     p.cfg.Compiler,
		Relax:        p.cfg.Ingestion,
	}
}

func (p *project) mapperConfig() services.MapperConfig {
	return services.MapperConfig{
		Root:         p.root,
		MappingsDir:  p.paths.Mappings,
		DataDir:      p.paths.Data,
		IngestionDir: p.paths.Ingestion,
		Rules:        p.cfg.VariantRules(),
	}
}

// relative shortens an absolute path under the project root for display.
func (p *project) relative(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

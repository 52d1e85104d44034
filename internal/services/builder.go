package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/hfsrb/hfsrb/internal/checksum"
	"github.com/hfsrb/hfsrb/internal/dictionary"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/files/scanner"
	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/metrics"
	"github.com/hfsrb/hfsrb/internal/schema"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// CompileConfig names the directories and settings for the compile phase.
type CompileConfig struct {
	SchemasDir   string
	CompiledDir  string
	IngestionDir string
	Compiler     schema.CompilerConfig
	Relax        schema.RelaxConfig
}

// CompiledSchema describes one compiled dictionary.
type CompiledSchema struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Compiled  string `json:"compiled"`
	Ingestion string `json:"ingestion"`
	Fields    int    `json:"fields"`
	Required  int    `json:"required"`
	// Written lists the outputs whose bytes changed.
	Written []string `json:"written"`
}

// CompileReport summarizes a compile phase.
type CompileReport struct {
	Schemas  []CompiledSchema `json:"schemas"`
	Failures []ItemError      `json:"failures"`
}

// Err returns ErrPartialFailure when any dictionary failed.
func (r *CompileReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d dictionaries failed", hfsrb.ErrPartialFailure, len(r.Failures), len(r.Failures)+len(r.Schemas))
}

// Builder compiles dictionaries. Outputs whose bytes are unchanged are not
// rewritten, so repeated builds leave timestamps alone.
type Builder struct {
	fs         filesystem.FileSystemProvider
	scanner    *scanner.Scanner
	calculator checksum.Calculator
	logger     hfsrb.Logger
	metrics    *metrics.Metrics
}

// NewBuilder panics on nil dependencies; m may be nil.
func NewBuilder(fsProvider filesystem.FileSystemProvider, logger hfsrb.Logger, m *metrics.Metrics) *Builder {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	calc := checksum.New()
	return &Builder{
		fs:         fsProvider,
		scanner:    scanner.NewScannerWithFS(calc, fsProvider),
		calculator: calc,
		logger:     logger,
		metrics:    m,
	}
}

// Compile compiles every dictionary under cfg.SchemasDir. Malformed
// dictionaries are reported and skipped.
func (b *Builder) Compile(ctx context.Context, cfg CompileConfig) (*CompileReport, error) {
	dicts, err := b.scanner.Dictionaries(cfg.SchemasDir)
	if err != nil {
		return nil, err
	}

	report := &CompileReport{Schemas: []CompiledSchema{}, Failures: []ItemError{}}
	for _, d := range dicts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		compiled, err := b.compileOne(d, cfg)
		if err != nil {
			b.logger.Error("%s: %v", d.Path, err)
			b.metrics.IncrementCompiled(metrics.ResultFailed)
			report.Failures = append(report.Failures, ItemError{Path: d.Path, Err: err})
			continue
		}
		if len(compiled.Written) == 0 {
			b.metrics.IncrementCompiled(metrics.ResultUnchanged)
			b.logger.Verbose("%s unchanged", compiled.Name)
		} else {
			b.metrics.IncrementCompiled(metrics.ResultWritten)
			b.logger.Verbose("✓ %s (%d fields, %d required)", compiled.Name, compiled.Fields, compiled.Required)
		}
		report.Schemas = append(report.Schemas, compiled)
	}
	return report, nil
}

func (b *Builder) compileOne(d scanner.DictionaryFile, cfg CompileConfig) (CompiledSchema, error) {
	dict, err := dictionary.Parse(d.Path, d.Content, dictionary.Options{MinCodeLength: cfg.Compiler.MinCodeLength})
	if err != nil {
		return CompiledSchema{}, err
	}

	compiled := schema.Compile(dict, cfg.Compiler)
	ingestion := schema.Relax(compiled, cfg.Relax)

	out := CompiledSchema{
		Name:      d.Name,
		Source:    d.Path,
		Compiled:  filepath.Join(cfg.CompiledDir, d.Name+hfsrb.SchemaFileSuffix),
		Ingestion: filepath.Join(cfg.IngestionDir, d.Name+hfsrb.SchemaFileSuffix),
		Fields:    len(dict.Fields),
		Written:   []string{},
	}
	for _, f := range dict.Fields {
		if f.Required {
			out.Required++
		}
	}

	for _, target := range []struct {
		path string
		doc  jsonvalue.Value
	}{{out.Compiled, compiled}, {out.Ingestion, ingestion}} {
		written, err := b.writeIfChanged(target.path, target.doc)
		if err != nil {
			return CompiledSchema{}, err
		}
		if written {
			out.Written = append(out.Written, target.path)
		}
	}
	return out, nil
}

func (b *Builder) writeIfChanged(path string, doc jsonvalue.Value) (bool, error) {
	data, err := jsonvalue.MarshalIndent(doc)
	if err != nil {
		return false, err
	}
	existing, err := b.fs.ReadFile(path)
	switch {
	case err == nil && b.calculator.CalculateRaw(existing) == b.calculator.CalculateRaw(data):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := b.fs.WriteFile(path, data); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

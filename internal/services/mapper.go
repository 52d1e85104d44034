package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hfsrb/hfsrb/internal/checksum"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/files/scanner"
	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/mapping"
	"github.com/hfsrb/hfsrb/internal/metrics"
	"github.com/hfsrb/hfsrb/internal/record"
	"github.com/hfsrb/hfsrb/internal/schema"
	"github.com/hfsrb/hfsrb/internal/store"
	"github.com/hfsrb/hfsrb/internal/validate"
	"github.com/hfsrb/hfsrb/internal/variant"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// MapperConfig locates the inputs of the mapping phase. Directories are
// absolute; schema paths named by mapping documents are relative to Root.
type MapperConfig struct {
	Root         string
	MappingsDir  string
	DataDir      string
	IngestionDir string
	Rules        variant.Rules
}

// MapOptions select and shape one mapping run.
type MapOptions struct {
	Filter scanner.Filter
	// Validate checks every payload against its schema. Violations are
	// reported but never stop a payload from being written.
	Validate bool
	// Ingestion maps against the relaxed schema of the same name.
	Ingestion     bool
	NormalizeKeys bool
	// Workers bounds parallelism; values below 1 mean one.
	Workers int
}

// Outcome of one entity.
const (
	OutcomeMapped  = metrics.OutcomeMapped
	OutcomeSkipped = metrics.OutcomeSkipped
	OutcomeFailed  = metrics.OutcomeFailed
)

// EntityResult describes what happened to one entity record.
type EntityResult struct {
	Path         string               `json:"path"`
	FacilityType string               `json:"facility_type"`
	Year         int                  `json:"year"`
	FacilityID   string               `json:"facility_id,omitempty"`
	EntityID     string               `json:"entity_id,omitempty"`
	Outcome      string               `json:"outcome"`
	Variant      string               `json:"variant,omitempty"`
	Mapping      string               `json:"mapping,omitempty"`
	Schema       string               `json:"schema,omitempty"`
	Unmapped     int                  `json:"unmapped"`
	Violations   []validate.Violation `json:"violations,omitempty"`
	Error        string               `json:"error,omitempty"`

	err error
}

// Err returns the failure or skip reason, if any.
func (r EntityResult) Err() error { return r.err }

// MapReport summarizes a mapping run. Entities keep discovery order.
type MapReport struct {
	Entities []EntityResult `json:"entities"`
	Mapped   int            `json:"mapped"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	// Invalid counts mapped payloads that failed validation.
	Invalid int `json:"invalid"`
}

// Err returns ErrPartialFailure when any entity failed.
func (r *MapReport) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d entities failed", hfsrb.ErrPartialFailure, r.Failed, len(r.Entities))
}

// Failures returns the failed entities as item errors.
func (r *MapReport) Failures() []ItemError {
	var out []ItemError
	for _, e := range r.Entities {
		if e.Outcome == OutcomeFailed {
			out = append(out, ItemError{Path: e.Path, Err: e.err})
		}
	}
	return out
}

type schemaEntry struct {
	doc      jsonvalue.Value
	declared schema.Declared
	err      error
}

// Mapper turns entity records into payload envelopes and hands them to
// sinks. A Mapper is safe for concurrent use; its schema cache lives as
// long as the Mapper.
type Mapper struct {
	cfg        MapperConfig
	fs         filesystem.FileSystemProvider
	scanner    *scanner.Scanner
	loader     *mapping.Loader
	tagger     *variant.Tagger
	validator  *validate.Validator
	calculator checksum.Calculator
	sinks      []hfsrb.PayloadSink
	logger     hfsrb.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	schemas map[string]*schemaEntry
}

// NewMapper panics on nil dependencies; m may be nil and sinks may be empty
// for a dry run.
func NewMapper(cfg MapperConfig, fsProvider filesystem.FileSystemProvider, sinks []hfsrb.PayloadSink, logger hfsrb.Logger, m *metrics.Metrics) *Mapper {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	calc := checksum.New()
	return &Mapper{
		cfg:        cfg,
		fs:         fsProvider,
		scanner:    scanner.NewScannerWithFS(calc, fsProvider),
		loader:     mapping.NewLoader(fsProvider, cfg.MappingsDir, cfg.Rules.Types()),
		tagger:     variant.NewTagger(cfg.Rules),
		validator:  validate.New(),
		calculator: calc,
		sinks:      sinks,
		logger:     logger,
		metrics:    m,
		schemas:    make(map[string]*schemaEntry),
	}
}

// Run maps every record selected by opts.Filter. Per-entity failures are
// recorded in the report; the returned error is non-nil only when
// discovery fails or ctx is cancelled.
func (m *Mapper) Run(ctx context.Context, opts MapOptions) (*MapReport, error) {
	records, err := m.scanner.Records(m.cfg.DataDir, opts.Filter)
	if err != nil {
		return nil, err
	}
	m.logger.Verbose("Found %d entity records under %s", len(records), m.cfg.DataDir)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]EntityResult, len(records))
	done := make([]bool, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = m.MapRecord(gctx, rec, opts)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	report := &MapReport{Entities: make([]EntityResult, 0, len(records))}
	for i, r := range results {
		if !done[i] {
			continue
		}
		switch r.Outcome {
		case OutcomeMapped:
			report.Mapped++
			if len(r.Violations) > 0 {
				report.Invalid++
			}
		case OutcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		report.Entities = append(report.Entities, r)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// MapRecord maps one record. It never panics on bad input; every problem
// ends up in the result.
func (m *Mapper) MapRecord(ctx context.Context, rec scanner.RecordFile, opts MapOptions) EntityResult {
	start := time.Now()
	res := EntityResult{Path: rec.Path, FacilityType: rec.Location.FacilityType, Year: rec.Location.Year}

	fail := func(err error) EntityResult {
		res.Outcome = OutcomeFailed
		res.err = err
		res.Error = err.Error()
		m.logger.Error("%s: %v", rec.Path, err)
		m.metrics.IncrementEntity(res.FacilityType, OutcomeFailed)
		return res
	}

	data, err := m.fs.ReadFile(rec.Path)
	if err != nil {
		return fail(fmt.Errorf("read record: %w", err))
	}
	entity, err := record.Decode(rec.Path, rec.Location, data, record.DecodeOptions{NormalizeKeys: opts.NormalizeKeys})
	if err != nil {
		return fail(err)
	}
	res.FacilityType = entity.FacilityType()
	res.Year = entity.Year()
	res.FacilityID = entity.FacilityID()
	res.EntityID = entity.ID().String()

	meta := cloneObject(entity.Meta)
	tag := m.cfg.Rules.TagOf(res.FacilityType, meta)
	if tag == "" {
		if d, changed := m.tagger.Annotate(res.FacilityType, entity.Fields, meta); changed {
			tag = d.Tag
			m.logger.Verbose("%s: tagged %s in memory", rec.Path, d.Tag)
		}
	}
	res.Variant = tag

	doc, err := m.loader.Resolve(res.FacilityType, res.Year, tag)
	if err != nil {
		var cfgErr *mapping.ConfigurationError
		if errors.As(err, &cfgErr) {
			res.Outcome = OutcomeSkipped
			res.err = err
			res.Error = err.Error()
			m.logger.Info("⚠ %s: %v", rec.Path, err)
			m.metrics.IncrementEntity(res.FacilityType, OutcomeSkipped)
			return res
		}
		return fail(err)
	}
	res.Mapping = doc.Source

	rule, _ := m.cfg.Rules.For(res.FacilityType)
	schemaRel := variant.Select(doc.Schema, tag, rule)
	if schemaRel == "" {
		return fail(&SchemaResolutionError{Mapping: doc.Source, Err: errors.New("mapping names no schema")})
	}
	schemaPath := m.resolvePath(schemaRel)
	if opts.Ingestion {
		schemaPath = filepath.Join(m.cfg.IngestionDir, filepath.Base(schemaPath))
		schemaRel = m.relativePath(schemaPath)
	}
	res.Schema = schemaRel

	entry := m.schema(schemaPath)
	if entry.err != nil {
		return fail(&SchemaResolutionError{Schema: schemaRel, Mapping: doc.Source, Err: entry.err})
	}

	mapped := mapping.Apply(entity.Fields, doc, entry.declared, meta)
	res.Unmapped = len(mapped.Unmapped)
	m.metrics.ObserveUnmapped(res.FacilityType, res.Unmapped)

	env := record.Envelope{
		Meta:       meta,
		Payload:    mapped.Fields,
		Provenance: mapped.Provenance,
		Unmapped:   mapped.Unmapped,
		Schema:     schemaRel,
	}
	out, err := env.Marshal()
	if err != nil {
		return fail(fmt.Errorf("render envelope: %w", err))
	}

	if opts.Validate {
		vr := m.validator.Validate(jsonvalue.ObjectOf(mapped.Fields), entry.doc)
		if !vr.Valid {
			res.Violations = vr.Violations
			m.metrics.IncrementValidationFailure(res.FacilityType)
			m.logger.Info("⚠ %s: %v", rec.Path, validate.AsError(schemaRel, vr))
		}
	}

	payload := hfsrb.StoredPayload{
		EntityID:     entity.ID(),
		Year:         res.Year,
		FacilityType: res.FacilityType,
		FacilityID:   res.FacilityID,
		Schema:       schemaRel,
		SourcePath:   rec.Path,
		Document:     out,
		Checksum:     m.calculator.CalculateNormalized(out),
	}
	if err := m.write(ctx, payload); err != nil {
		return fail(err)
	}

	res.Outcome = OutcomeMapped
	m.metrics.IncrementEntity(res.FacilityType, OutcomeMapped)
	m.metrics.ObserveMapLatency(time.Since(start))
	m.logger.Verbose("✓ %s → %s (%d unmapped)", rec.Path, schemaRel, res.Unmapped)
	return res
}

func (m *Mapper) write(ctx context.Context, p hfsrb.StoredPayload) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, p); err != nil {
			m.metrics.IncrementSinkWrite(sink.Name(), metrics.ResultFailed)
			errs = append(errs, &store.SinkError{Sink: sink.Name(), Path: p.SourcePath, Err: err})
			continue
		}
		m.metrics.IncrementSinkWrite(sink.Name(), metrics.ResultWritten)
	}
	return errors.Join(errs...)
}

// schema loads and caches a schema document. Failures are cached too.
func (m *Mapper) schema(path string) *schemaEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.schemas[path]; ok {
		return e
	}
	e := &schemaEntry{}
	data, err := m.fs.ReadFile(path)
	if err == nil {
		e.doc, err = schema.Parse(data)
	}
	if err != nil {
		e.err = err
	} else {
		e.declared = schema.DeclaredProperties(e.doc)
	}
	m.schemas[path] = e
	return e
}

func (m *Mapper) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.cfg.Root, filepath.FromSlash(p))
}

func (m *Mapper) relativePath(p string) string {
	rel, err := filepath.Rel(m.cfg.Root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func cloneObject(o *jsonvalue.Object) *jsonvalue.Object {
	if o == nil {
		return jsonvalue.NewObject()
	}
	c, _ := jsonvalue.Clone(jsonvalue.ObjectOf(o)).AsObject()
	return c
}

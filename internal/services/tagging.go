package services

import (
	"context"
	"fmt"

	"github.com/hfsrb/hfsrb/internal/checksum"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/files/scanner"
	"github.com/hfsrb/hfsrb/internal/record"
	"github.com/hfsrb/hfsrb/internal/variant"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// TagResult is the tagging decision for one record.
type TagResult struct {
	Path         string `json:"path"`
	FacilityType string `json:"facility_type"`
	Year         int    `json:"year"`
	Previous     string `json:"previous,omitempty"`
	Tag          string `json:"tag"`
	Category     string `json:"category,omitempty"`
	Measure      *int64 `json:"measure,omitempty"`
	Changed      bool   `json:"changed"`
	Written      bool   `json:"written"`
}

// TagReport lists every record whose type has a tagging rule.
type TagReport struct {
	Results  []TagResult `json:"results"`
	Changed  int         `json:"changed"`
	Failures []ItemError `json:"failures"`
}

// Err returns ErrPartialFailure when any record could not be tagged.
func (r *TagReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d records could not be tagged", hfsrb.ErrPartialFailure, len(r.Failures))
}

// VariantTagger computes schema variant tags for records and optionally
// persists them into the records' meta.
type VariantTagger struct {
	fs      filesystem.FileSystemProvider
	scanner *scanner.Scanner
	rules   variant.Rules
	tagger  *variant.Tagger
	logger  hfsrb.Logger
}

// NewVariantTagger panics on nil dependencies.
func NewVariantTagger(fsProvider filesystem.FileSystemProvider, rules variant.Rules, logger hfsrb.Logger) *VariantTagger {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &VariantTagger{
		fs:      fsProvider,
		scanner: scanner.NewScannerWithFS(checksum.New(), fsProvider),
		rules:   rules,
		tagger:  variant.NewTagger(rules),
		logger:  logger,
	}
}

// Run tags every record under dataDir matching filter. With write set,
// records whose meta changed are rewritten in place; everything outside
// meta is preserved.
func (t *VariantTagger) Run(ctx context.Context, dataDir string, filter scanner.Filter, write bool) (*TagReport, error) {
	records, err := t.scanner.Records(dataDir, filter)
	if err != nil {
		return nil, err
	}

	report := &TagReport{Results: []TagResult{}, Failures: []ItemError{}}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, ok, err := t.tagOne(rec, write)
		if err != nil {
			t.logger.Error("%s: %v", rec.Path, err)
			report.Failures = append(report.Failures, ItemError{Path: rec.Path, Err: err})
			continue
		}
		if !ok {
			continue
		}
		if res.Changed {
			report.Changed++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (t *VariantTagger) tagOne(rec scanner.RecordFile, write bool) (TagResult, bool, error) {
	data, err := t.fs.ReadFile(rec.Path)
	if err != nil {
		return TagResult{}, false, err
	}
	entity, err := record.Decode(rec.Path, rec.Location, data, record.DecodeOptions{})
	if err != nil {
		return TagResult{}, false, err
	}

	ftype := entity.FacilityType()
	previous := t.rules.TagOf(ftype, entity.Meta)
	d, changed := t.tagger.Annotate(ftype, entity.Fields, entity.Meta)
	if d.Tag == "" && !changed {
		return TagResult{}, false, nil
	}

	res := TagResult{
		Path:         rec.Path,
		FacilityType: ftype,
		Year:         entity.Year(),
		Previous:     previous,
		Tag:          d.Tag,
		Category:     d.Category,
		Changed:      changed,
	}
	if d.Measured {
		measure := d.Measure
		res.Measure = &measure
	}

	if changed && write {
		out, err := entity.Encode()
		if err != nil {
			return TagResult{}, false, err
		}
		if err := t.fs.WriteFile(rec.Path, out); err != nil {
			return TagResult{}, false, fmt.Errorf("write record: %w", err)
		}
		res.Written = true
		t.logger.Verbose("✓ %s: %s → %s", rec.Path, previous, d.Tag)
	}
	return res, true, nil
}

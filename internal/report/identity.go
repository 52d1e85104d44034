// Package report inspects stored payload envelopes.
package report

import (
	"context"
	"sort"
	"strings"

	"github.com/hfsrb/hfsrb/internal/checksum"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/files/scanner"
	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/record"
)

// IdentityFieldsFunc returns the identity properties required for a
// facility type, or nil when the type has none.
type IdentityFieldsFunc func(facilityType string) []string

// IdentityGap is one envelope missing identity properties.
type IdentityGap struct {
	Path         string   `json:"path"`
	FacilityType string   `json:"facility_type"`
	Year         int      `json:"year"`
	Facility     string   `json:"facility"`
	Missing      []string `json:"missing"`
}

// IdentityReport summarizes identity completeness across envelopes.
type IdentityReport struct {
	Checked int           `json:"checked"`
	Gaps    []IdentityGap `json:"gaps"`
	// MissingByField counts gaps per property.
	MissingByField map[string]int `json:"missing_by_field"`
	Unreadable     []string       `json:"unreadable,omitempty"`
}

// Complete reports whether every checked envelope carried its identity.
func (r *IdentityReport) Complete() bool {
	return len(r.Gaps) == 0 && len(r.Unreadable) == 0
}

// Fields returns the properties in MissingByField, most frequently missing first.
func (r *IdentityReport) Fields() []string {
	fields := make([]string, 0, len(r.MissingByField))
	for f := range r.MissingByField {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		a, b := r.MissingByField[fields[i]], r.MissingByField[fields[j]]
		if a != b {
			return a > b
		}
		return fields[i] < fields[j]
	})
	return fields
}

// Identity checks every envelope under dataDir that matches filter. An
// identity property is missing when it is absent from the payload, null, or
// blank text. Envelopes whose type has no identity fields are not counted.
func Identity(ctx context.Context, fsProvider filesystem.FileSystemProvider, dataDir string, filter scanner.Filter, identity IdentityFieldsFunc) (*IdentityReport, error) {
	envelopes, err := scanner.NewScannerWithFS(checksum.New(), fsProvider).Envelopes(dataDir, filter)
	if err != nil {
		return nil, err
	}

	report := &IdentityReport{Gaps: []IdentityGap{}, MissingByField: map[string]int{}}
	for _, f := range envelopes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fields := identity(f.Location.FacilityType)
		if len(fields) == 0 {
			continue
		}

		data, err := fsProvider.ReadFile(f.Path)
		if err != nil {
			report.Unreadable = append(report.Unreadable, f.Path)
			continue
		}
		env, err := record.ParseEnvelope(f.Path, data)
		if err != nil {
			report.Unreadable = append(report.Unreadable, f.Path)
			continue
		}

		report.Checked++
		missing := missingFields(env.Payload, fields)
		if len(missing) == 0 {
			continue
		}
		for _, m := range missing {
			report.MissingByField[m]++
		}
		report.Gaps = append(report.Gaps, IdentityGap{
			Path:         f.Path,
			FacilityType: f.Location.FacilityType,
			Year:         f.Location.Year,
			Facility:     f.Location.Facility,
			Missing:      missing,
		})
	}
	return report, nil
}

func missingFields(payload *jsonvalue.Object, fields []string) []string {
	var missing []string
	for _, name := range fields {
		v, ok := payload.Get(name)
		if !ok || v.IsNull() {
			missing = append(missing, name)
			continue
		}
		if s, isString := v.AsString(); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

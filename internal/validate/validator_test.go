package validate

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const facilitySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "facility_name": {"type": "string", "x_label": "Name", "x_order": 1},
    "fein": {"type": "string", "pattern": "^\\d{2}-\\d{7}$"},
    "ownership_type": {"type": "string", "enum": ["for_profit", "nonprofit"]},
    "report_year": {"type": "integer", "minimum": 1900, "maximum": 2100},
    "opened_on": {"type": "string", "format": "date"},
    "owners": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {"name": {"type": "string"}, "share": {"type": "number"}},
        "required": ["name"]
      }
    },
    "nullable": {"type": ["string", "null"]}
  },
  "required": ["facility_name", "fein"]
}`

func parse(t *testing.T, s string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func TestValidate_ValidPayload(t *testing.T) {
	result := Validate(parse(t, `{
		"facility_name": "General",
		"fein": "12-3456789",
		"ownership_type": "nonprofit",
		"report_year": 2024,
		"opened_on": "not a date but format is an annotation",
		"owners": [{"name": "A", "share": 0.5}],
		"nullable": null,
		"extra": "ignored"
	}`), parse(t, facilitySchema))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Violations)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []Violation
	}{
		{
			name:    "missing required",
			payload: `{"fein": "12-3456789"}`,
			want:    []Violation{{Path: "facility_name", Rule: RuleRequired}},
		},
		{
			name:    "pattern mismatch",
			payload: `{"facility_name": "x", "fein": "123456789"}`,
			want:    []Violation{{Path: "fein", Rule: RulePattern}},
		},
		{
			name:    "enum mismatch",
			payload: `{"facility_name": "x", "fein": "12-3456789", "ownership_type": "Church"}`,
			want:    []Violation{{Path: "ownership_type", Rule: RuleEnum}},
		},
		{
			name:    "type mismatch on string digits",
			payload: `{"facility_name": "x", "fein": "12-3456789", "report_year": "2024"}`,
			want:    []Violation{{Path: "report_year", Rule: RuleType}},
		},
		{
			name:    "integer rejects fraction",
			payload: `{"facility_name": "x", "fein": "12-3456789", "report_year": 2024.5}`,
			want:    []Violation{{Path: "report_year", Rule: RuleType}},
		},
		{
			name:    "bounds",
			payload: `{"facility_name": "x", "fein": "12-3456789", "report_year": 1800}`,
			want:    []Violation{{Path: "report_year", Rule: RuleMinimum}},
		},
		{
			name:    "nested array items",
			payload: `{"facility_name": "x", "fein": "12-3456789", "owners": [{"name": "a"}, {"share": "half"}]}`,
			want: []Violation{
				{Path: "owners[1].name", Rule: RuleRequired},
				{Path: "owners[1].share", Rule: RuleType},
			},
		},
		{
			name:    "sorted by path then rule",
			payload: `{"report_year": 3000, "fein": 12}`,
			want: []Violation{
				{Path: "facility_name", Rule: RuleRequired},
				{Path: "fein", Rule: RuleType},
				{Path: "report_year", Rule: RuleMaximum},
			},
		},
		{
			name:    "root type",
			payload: `["not", "an", "object"]`,
			want:    []Violation{{Path: "", Rule: RuleType}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(parse(t, tt.payload), parse(t, facilitySchema))
			assert.False(t, result.Valid)

			got := make([]Violation, len(result.Violations))
			for i, v := range result.Violations {
				assert.NotEmpty(t, v.Message)
				got[i] = Violation{Path: v.Path, Rule: v.Rule}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_DoesNotMutateInstance(t *testing.T) {
	payload := parse(t, `{"fein": "bad", "owners": [{"share": 1}]}`)
	before, err := jsonvalue.Marshal(payload)
	require.NoError(t, err)

	Validate(payload, parse(t, facilitySchema))

	after, err := jsonvalue.Marshal(payload)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestValidate_UncompilablePatternIsReported(t *testing.T) {
	s := parse(t, `{"properties": {"a": {"pattern": "(?<=x)y"}}}`)
	result := New().Validate(parse(t, `{"a": "xy"}`), s)

	require.Len(t, result.Violations, 1)
	assert.False(t, result.Valid)
	assert.Equal(t, "", result.Violations[0].Path)
	assert.Equal(t, RuleSchema, result.Violations[0].Rule)
	assert.Contains(t, result.Violations[0].Message, "does not compile")
}

func TestValidate_KeywordsBeyondFacilitySubset(t *testing.T) {
	s := parse(t, `{
		"type": "object",
		"properties": {
			"zip": {"type": "string", "minLength": 5},
			"codes": {"type": "array", "items": {"type": "string"}, "maxItems": 1}
		},
		"additionalProperties": false
	}`)

	result := Validate(parse(t, `{"zip": "123", "codes": ["a", "b"], "other": 1}`), s)

	got := make([]Violation, len(result.Violations))
	for i, v := range result.Violations {
		got[i] = Violation{Path: v.Path, Rule: v.Rule}
	}
	assert.Equal(t, []Violation{
		{Path: "", Rule: "additionalProperties"},
		{Path: "codes", Rule: "maxItems"},
		{Path: "zip", Rule: "minLength"},
	}, got)
}

func TestValidate_NumericKeysInsideArrays(t *testing.T) {
	s := parse(t, `{"type": "object", "properties": {"rows": {"type": "array", "items": {
		"type": "object", "properties": {"10": {"type": "integer"}}
	}}}}`)

	result := Validate(parse(t, `{"rows": [{"10": 1}, {"10": "x"}]}`), s)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "rows[1].10", result.Violations[0].Path)
	assert.Equal(t, RuleType, result.Violations[0].Rule)
}

func TestValidate_ReusesCompiledSchema(t *testing.T) {
	v := New()
	s := parse(t, facilitySchema)
	v.Validate(parse(t, `{}`), s)
	v.Validate(parse(t, `{"facility_name": "x"}`), parse(t, facilitySchema))

	n := 0
	v.schemas.Range(func(_, _ any) bool { n++; return true })
	assert.Equal(t, 1, n)
}

func TestValidate_ConcurrentUse(t *testing.T) {
	v := New()
	s := parse(t, facilitySchema)
	payload := parse(t, `{"facility_name": "x", "fein": "nope"}`)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := v.Validate(payload, s)
			assert.Len(t, result.Violations, 1)
		}()
	}
	wg.Wait()
}

func TestAsError(t *testing.T) {
	assert.NoError(t, AsError("schemas/json/a.schema.json", newResult()))

	r := newResult()
	r.AddViolation("fein", RulePattern, "value %q does not match", "x")
	err := AsError("schemas/json/a.schema.json", r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, hfsrb.ErrValidation))
	assert.Contains(t, err.Error(), "1 violation(s) against schemas/json/a.schema.json")
	assert.Contains(t, err.Error(), `fein: value "x" does not match`)
}

func TestResult_ErrorString(t *testing.T) {
	r := newResult()
	assert.Equal(t, "", r.ErrorString())

	r.AddViolation("", RuleType, "expected type object")
	r.AddViolation("a", RuleEnum, "bad")
	assert.Equal(t, "(root): expected type object; a: bad", r.ErrorString())
	assert.False(t, r.Valid)
}

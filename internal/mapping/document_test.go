package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const hospitalMappingJSON = `{
  "schema": "schemas/json/ahq-long.schema.json|schemas/json/ahq-short.schema.json",
  "direct": {"fac_name": "facility_name", "address": "street", "city": "city"},
  "const": {"state": "IL"},
  "meta": {"facility_id": "facility_id"},
  "sum": {"total_beds": ["med_surg_beds", "icu_beds"]},
  "arrays": [{"dest": "owners", "count": "2", "item": {"name": "owner_{n}", "pct": "owner_{n}_pct"}, "require": ["name"]}],
  "transforms": [{"src": "fein", "dst": "fein", "op": "fein"}, {"src": "id", "dst": "facility_id", "op": "digits", "pad": 7}]
}`

const hospitalMappingYAML = `
schema: schemas/json/ahq-long.schema.json|schemas/json/ahq-short.schema.json
direct:
  fac_name: facility_name
  address: street
  city: city
const:
  state: IL
meta:
  facility_id: facility_id
sum:
  total_beds: [med_surg_beds, icu_beds]
arrays:
  - dest: owners
    count: 2
    item:
      name: owner_{n}
      pct: owner_{n}_pct
    require: [name]
transforms:
  - {src: fein, dst: fein, op: fein}
  - {src: id, dst: facility_id, op: digits, pad: 7}
`

func TestParseDocument_JSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := ParseDocument("hospital.json", []byte(hospitalMappingJSON))
	require.NoError(t, err)
	fromYAML, err := ParseDocument("hospital.yaml", []byte(hospitalMappingYAML))
	require.NoError(t, err)

	fromJSON.Source, fromYAML.Source = "", ""
	assert.Equal(t, fromJSON, fromYAML)

	assert.Equal(t, []DirectRule{
		{Src: "fac_name", Dst: "facility_name"},
		{Src: "address", Dst: "street"},
		{Src: "city", Dst: "city"},
	}, fromYAML.Direct)
	assert.Equal(t, []SumRule{{Dst: "total_beds", Sources: []string{"med_surg_beds", "icu_beds"}}}, fromYAML.Sum)
	assert.Equal(t, ArrayRule{
		Dest:    "owners",
		Count:   2,
		Item:    []ItemTemplate{{Key: "name", Template: "owner_{n}"}, {Key: "pct", Template: "owner_{n}_pct"}},
		Require: []string{"name"},
	}, fromYAML.Arrays[0])
	assert.Equal(t, TransformRule{Src: "id", Dst: "facility_id", Op: "digits", Pad: 7}, fromYAML.Transforms[1])
}

func TestParseDocument_YAMLScalars(t *testing.T) {
	doc, err := ParseDocument("x.yml", []byte("const:\n  beds: 12\n  ratio: 0.5\n  open: true\n  note: ~\n  code: '007'\n"))
	require.NoError(t, err)

	var got []string
	for _, c := range doc.Const {
		b, err := jsonvalue.Marshal(c.Value)
		require.NoError(t, err)
		got = append(got, c.Dst+"="+string(b))
	}
	assert.Equal(t, []string{"beds=12", "ratio=0.5", "open=true", "note=null", `code="007"`}, got)
}

func TestParseDocument_EmptyYAMLIsEmptyDocument(t *testing.T) {
	doc, err := ParseDocument("empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Direct)
	assert.Empty(t, doc.Schema)
}

func TestItemTemplate_Source(t *testing.T) {
	tmpl := ItemTemplate{Key: "name", Template: "owner_{n}_name_{n}"}
	assert.Equal(t, "owner_3_name_3", tmpl.Source(3))
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		input    string
		contains string
	}{
		{"root not object", "m.json", `[]`, "not an object"},
		{"direct not object", "m.json", `{"direct": []}`, "direct: expected an object"},
		{"direct value not string", "m.json", `{"direct": {"a": 1}}`, "direct.a: expected a string"},
		{"sum value not list", "m.json", `{"sum": {"t": {"a": 1}}}`, "sum.t: expected a list of strings"},
		{"arrays not list", "m.json", `{"arrays": {}}`, "arrays: expected a list"},
		{"array missing dest", "m.json", `{"arrays": [{"count": 1}]}`, "arrays[0]: missing dest"},
		{"array negative count", "m.json", `{"arrays": [{"dest": "d", "count": -1}]}`, "arrays[0].count"},
		{"array fractional count", "m.json", `{"arrays": [{"dest": "d", "count": 1.5}]}`, "arrays[0].count"},
		{"transform missing op", "m.json", `{"transforms": [{"src": "a", "dst": "b"}]}`, "transforms[0]: missing op"},
		{"transform bad pad", "m.json", `{"transforms": [{"src": "a", "dst": "b", "op": "digits", "pad": "x"}]}`, "transforms[0].pad"},
		{"bad json", "m.json", `{"direct": {`, "malformed input"},
		{"bad yaml", "m.yaml", "direct: [unclosed\n", "malformed input"},
		{"yaml infinity", "m.yaml", "const:\n  x: .inf\n", "no JSON representation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(tt.source, []byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, hfsrb.ErrMalformedInput), "error should unwrap to ErrMalformedInput: %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const testDictionary = `# AHQ Short

## Fields

| field_id | field_label | field_name | type | required | allowed_values | format | unit | section/page | notes |
|---|---|---|---|---|---|---|---|---|---|
| facility.name | Facility Name | facility_name | string | yes | | | | 1 | |
| beds.total | Total Beds | total_beds | integer | no | | | beds | 2 | |
`

const testMapping = `{
  "schema": "schemas/json/ahq-long.schema.json|schemas/json/ahq-short.schema.json",
  "direct": {"hname": "facility_name"},
  "sum": {"total_beds": ["med_beds", "icu_beds"]}
}`

const testRecord = `{
  "meta": {"year": 2024, "facility_type": "Hospital", "facility_id": "1234"},
  "fields": {"hname": "Mercy Hospital", "med_beds": "40", "icu_beds": "2"}
}`

const recordDir = "data/2024/Hospital/0001234-mercy"

func resetFlags() {
	rootFlags.verbose = false
	rootFlags.project = "."
	rootFlags.json = false
	mapCmdFlags = mapFlags{}
	buildCmdFlags = mapFlags{}
	variantTagFlags.filterFlags = filterFlags{}
	variantTagFlags.write = false
	reportIdentityFlags.filterFlags = filterFlags{}
	reportIdentityFlags.strict = false
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "schemas/ahq-short/README.md", testDictionary)
	writeFile(t, root, "mappings/hospital.json", testMapping)
	writeFile(t, root, recordDir+"/data.json", testRecord)
	return root
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	for _, k := range []string{"DATABASE_URL", "HFSRB_WORKERS", "HFSRB_S3_BUCKET", "HFSRB_S3_ENDPOINT", "AWS_REGION"} {
		t.Setenv(k, "")
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCompileCmd(t *testing.T) {
	root := newTestProject(t)

	stdout, stderr, err := execute(t, "compile", "-C", root)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "✓ ahq-short (2 fields, 1 required)")

	for _, rel := range []string{"schemas/json/ahq-short.schema.json", "schemas/json_ingestion/ahq-short.schema.json"} {
		_, err := os.Stat(filepath.Join(root, rel))
		assert.NoError(t, err, rel)
	}
}

func TestCompileCmd_JSON(t *testing.T) {
	root := newTestProject(t)

	stdout, _, err := execute(t, "compile", "-C", root, "--json")
	require.NoError(t, err)

	var report struct {
		Schemas []struct {
			Name string `json:"name"`
		} `json:"schemas"`
		Failures []any `json:"failures"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Schemas, 1)
	assert.Equal(t, "ahq-short", report.Schemas[0].Name)
	assert.Empty(t, report.Failures)
}

func TestCompileCmd_PartialFailure(t *testing.T) {
	root := newTestProject(t)
	writeFile(t, root, "schemas/broken/README.md", "# Broken\n\nno table here\n")

	_, stderr, err := execute(t, "compile", "-C", root)
	require.Error(t, err)
	assert.Equal(t, hfsrb.ExitPartialFailure, hfsrb.ExitCodeForError(err))
	assert.Contains(t, stderr, "✗ schemas/broken/README.md")
}

func TestMapCmd(t *testing.T) {
	root := newTestProject(t)
	_, _, err := execute(t, "compile", "-C", root)
	require.NoError(t, err)

	stdout, _, err := execute(t, "map", "-C", root, "--json", "--validate", "--workers", "2")
	require.NoError(t, err)

	var report struct {
		Mapped   int `json:"mapped"`
		Failed   int `json:"failed"`
		Entities []struct {
			Variant string `json:"variant"`
			Schema  string `json:"schema"`
		} `json:"entities"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 1, report.Mapped)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Entities, 1)
	assert.Equal(t, "ahq-short", report.Entities[0].Variant, "tagged from the default hospital rule")
	assert.Equal(t, "schemas/json/ahq-short.schema.json", report.Entities[0].Schema)

	envelope, err := os.ReadFile(filepath.Join(root, recordDir, "schema_payload.json"))
	require.NoError(t, err)
	assert.Contains(t, string(envelope), `"total_beds": 42`)
	assert.Contains(t, string(envelope), `"schema": "schemas/json/ahq-short.schema.json"`)
}

func TestMapCmd_MissingSchemaIsPartialFailure(t *testing.T) {
	root := newTestProject(t)

	_, stderr, err := execute(t, "map", "-C", root)
	require.Error(t, err)
	assert.Equal(t, hfsrb.ExitPartialFailure, hfsrb.ExitCodeForError(err))
	assert.Contains(t, stderr, "schema schemas/json/ahq-short.schema.json")
}

func TestMapCmd_UnknownSink(t *testing.T) {
	root := newTestProject(t)

	_, _, err := execute(t, "map", "-C", root, "--sink", "kafka")
	require.Error(t, err)
	assert.Equal(t, hfsrb.ExitConfigError, hfsrb.ExitCodeForError(err))
	assert.Contains(t, err.Error(), `unknown sink "kafka"`)
}

func TestBuildCmd_SQLiteAndMetrics(t *testing.T) {
	root := newTestProject(t)
	metricsFile := filepath.Join(t.TempDir(), "hfsrb.prom")

	_, stderr, err := execute(t, "build", "-C", root, "--sink", "file", "--sink", "sqlite", "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Compile")
	assert.Contains(t, stderr, "Mapping")

	_, err = os.Stat(filepath.Join(root, "hfsrb.db"))
	assert.NoError(t, err)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "hfsrb_entities_processed_total")
}

func TestValidateCmd(t *testing.T) {
	root := newTestProject(t)
	_, _, err := execute(t, "build", "-C", root)
	require.NoError(t, err)
	envelope := filepath.Join(root, recordDir, "schema_payload.json")

	_, stderr, err := execute(t, "validate", "-C", root, "ahq-short", envelope)
	require.NoError(t, err)
	assert.Contains(t, stderr, "is valid")

	bad := filepath.Join(root, "bad.json")
	writeFile(t, root, "bad.json", `{"total_beds": "many"}`)
	_, stderr, err = execute(t, "validate", "-C", root, "ahq-short", bad)
	require.Error(t, err)
	assert.Equal(t, hfsrb.ExitValidationFailed, hfsrb.ExitCodeForError(err))
	assert.Contains(t, stderr, "facility_name")
	assert.Contains(t, stderr, "total_beds")
}

func TestValidateCmd_MissingSchema(t *testing.T) {
	root := newTestProject(t)
	writeFile(t, root, "p.json", `{}`)

	_, _, err := execute(t, "validate", "-C", root, "nope", filepath.Join(root, "p.json"))
	require.Error(t, err)
	assert.Equal(t, hfsrb.ExitSchemaMissing, hfsrb.ExitCodeForError(err))
}

func TestValidateCmd_ArgsValidation(t *testing.T) {
	err := validateCmd.Args(validateCmd, []string{"only-one"})
	require.Error(t, err)
	assert.Equal(t, hfsrb.ExitUsageError, hfsrb.ExitCodeForError(err))
}

func TestVariantTagCmd(t *testing.T) {
	root := newTestProject(t)
	dataFile := filepath.Join(root, recordDir, "data.json")

	_, stderr, err := execute(t, "variant", "tag", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, stderr, "(none) → ahq-short")
	unchanged, err := os.ReadFile(dataFile)
	require.NoError(t, err)
	assert.Equal(t, testRecord, string(unchanged))

	_, _, err = execute(t, "variant", "tag", "-C", root, "--write")
	require.NoError(t, err)
	written, err := os.ReadFile(dataFile)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"ahq_variant": "ahq-short"`)
	assert.Contains(t, string(written), `"hname": "Mercy Hospital"`)
}

func TestReportIdentityCmd(t *testing.T) {
	root := newTestProject(t)
	_, _, err := execute(t, "build", "-C", root)
	require.NoError(t, err)

	_, stderr, err := execute(t, "report", "identity", "-C", root)
	require.NoError(t, err)
	assert.Contains(t, stderr, "missing license_idph")

	_, _, err = execute(t, "report", "identity", "-C", root, "--strict")
	require.Error(t, err)
	assert.Equal(t, hfsrb.ExitValidationFailed, hfsrb.ExitCodeForError(err))
}

func TestLoadProject_Errors(t *testing.T) {
	tests := []struct {
		name   string
		root   func(t *testing.T) string
		expect string
	}{
		{"missing directory", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }, "does not exist"},
		{"invalid yaml", func(t *testing.T) string {
			root := newTestProject(t)
			writeFile(t, root, hfsrb.ConfigFileName, "workers: -2\n")
			return root
		}, "workers must be >= 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "compile", "-C", tt.root(t))
			require.Error(t, err)
			assert.Equal(t, hfsrb.ExitConfigError, hfsrb.ExitCodeForError(err))
			assert.Contains(t, err.Error(), tt.expect)
		})
	}
}

func TestCompleteSinkNames(t *testing.T) {
	got, _ := completeSinkNames(nil, nil, "s")
	assert.Equal(t, []string{"sqlite", "s3"}, got)
}

func TestCompleteFacilityTypes_Defaults(t *testing.T) {
	resetFlags()
	rootFlags.project = t.TempDir()
	got, _ := completeFacilityTypes(nil, nil, "")
	assert.Equal(t, []string{"astc", "esrd", "hospital", "ltc"}, got)
}

func TestCompleteSchemaNames(t *testing.T) {
	root := newTestProject(t)
	_, _, err := execute(t, "compile", "-C", root)
	require.NoError(t, err)

	rootFlags.project = root
	got, _ := completeSchemaNames(nil, nil, "ahq")
	assert.Equal(t, []string{"ahq-short"}, got)

	got, _ = completeSchemaNames(nil, []string{"ahq-short"}, "")
	assert.Empty(t, got)
}

func TestRootHelpListsExitCodes(t *testing.T) {
	assert.True(t, strings.Contains(rootCmd.Long, "16 - Batch finished with per-item failures"))
}

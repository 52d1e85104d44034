package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/internal/checksum"
	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/record"
)

func newTestScanner() (*Scanner, *filesystem.MemoryFileSystem) {
	fs := filesystem.NewMemoryFileSystem("/project")
	return NewScannerWithFS(checksum.New(), fs), fs
}

func TestNewScannerWithFS_NilArgs(t *testing.T) {
	calc := checksum.New()
	fs := filesystem.NewMemoryFileSystem("/")

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil calculator", func() { NewScannerWithFS(nil, fs) }},
		{"nil filesystem", func() { NewScannerWithFS(calc, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.fn)
		})
	}
}

func TestDictionaries(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("schemas/ahq-short/README.md", "# AHQ short")
	fs.AddFile("schemas/ahq-long/README.md", "# AHQ long")
	fs.AddFile("schemas/_drafts/README.md", "# draft")
	fs.AddFile("schemas/json/ahq-long.schema.json", "{}")
	fs.AddFile("schemas/notes/other.md", "no dictionary here")
	fs.AddFile("schemas/README.md", "# index")

	dicts, err := s.Dictionaries("/project/schemas")
	require.NoError(t, err)

	require.Len(t, dicts, 2)
	assert.Equal(t, "ahq-long", dicts[0].Name)
	assert.Equal(t, "/project/schemas/ahq-long/README.md", dicts[0].Path)
	assert.Equal(t, "# AHQ long", string(dicts[0].Content))
	assert.Equal(t, checksum.New().CalculateNormalized([]byte("# AHQ long")), dicts[0].Checksum)
	assert.Equal(t, "ahq-short", dicts[1].Name)
}

func TestDictionaries_MissingDirectory(t *testing.T) {
	s, _ := newTestScanner()
	_, err := s.Dictionaries("/project/schemas")
	assert.Error(t, err)
}

func TestRecords(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("data/2024/Hospital/0001-mercy/data.json", "{}")
	fs.AddFile("data/2024/Hospital/0002-st-joe/data.json", "{}")
	fs.AddFile("data/2024/Hospital/0002-st-joe/schema_payload.json", "{}")
	fs.AddFile("data/2023/LTC/aa-care/data.json", "{}")
	fs.AddFile("data/2023/LTC/data.json", "{}")
	fs.AddFile("data/misc/LTC/x/data.json", "{}")
	fs.AddFile("data/2023/LTC/bb/nested/data.json", "{}")

	all, err := s.Records("/project/data", Filter{})
	require.NoError(t, err)

	var paths []string
	for _, r := range all {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{
		"/project/data/2023/LTC/aa-care/data.json",
		"/project/data/2024/Hospital/0001-mercy/data.json",
		"/project/data/2024/Hospital/0002-st-joe/data.json",
	}, paths)
	assert.Equal(t, record.Location{Year: 2023, FacilityType: "LTC", Facility: "aa-care"}, all[0].Location)
	assert.Equal(t, "/project/data/2023/LTC/aa-care", all[0].Dir())
}

func TestRecords_Filter(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("data/2024/Hospital/a/data.json", "{}")
	fs.AddFile("data/2024/ESRD/b/data.json", "{}")
	fs.AddFile("data/2023/Hospital/c/data.json", "{}")

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"year", Filter{Years: []int{2024}}, []string{"b", "a"}},
		{"type case-insensitive", Filter{Types: []string{"hospital"}}, []string{"c", "a"}},
		{"both", Filter{Years: []int{2023}, Types: []string{"ESRD", "Hospital"}}, []string{"c"}},
		{"no match", Filter{Years: []int{2008}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := s.Records("/project/data", tt.filter)
			require.NoError(t, err)
			var got []string
			for _, r := range recs {
				got = append(got, r.Location.Facility)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecords_MissingDataDirectory(t *testing.T) {
	s, _ := newTestScanner()
	recs, err := s.Records("/project/data", Filter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEnvelopes(t *testing.T) {
	s, fs := newTestScanner()
	fs.AddFile("data/2024/Hospital/a/data.json", "{}")
	fs.AddFile("data/2024/Hospital/a/schema_payload.json", "{}")
	fs.AddFile("data/2024/Hospital/b/data.json", "{}")

	envs, err := s.Envelopes("/project/data", Filter{})
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "/project/data/2024/Hospital/a/schema_payload.json", envs[0].Path)
}

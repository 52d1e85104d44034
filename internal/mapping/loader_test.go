package mapping

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

func newTestLoader(files map[string]string) *Loader {
	mfs := filesystem.NewMemoryFileSystem("/project")
	for name, content := range files {
		mfs.AddFile("mappings/"+name, content)
	}
	return NewLoader(mfs, "/project/mappings", []string{"Hospital", "LTC"})
}

func TestLoader_Candidates(t *testing.T) {
	l := newTestLoader(nil)

	tests := []struct {
		name    string
		ftype   string
		variant string
		want    []string
	}{
		{"no variant", "Hospital", "", []string{"hospital_2024", "hospital"}},
		{"variant on supported type", "Hospital", "AHQ-Long", []string{"ahq-long_2024", "ahq-long", "hospital_2024", "hospital"}},
		{"variant on unsupported type", "ESRD", "esrd-x", []string{"esrd_2024", "esrd"}},
		{"lowercased type", "LTC", "ltc3", []string{"ltc3_2024", "ltc3", "ltc_2024", "ltc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Candidates(tt.ftype, 2024, tt.variant))
		})
	}
}

func TestLoader_ResolvePriority(t *testing.T) {
	l := newTestLoader(map[string]string{
		"hospital.json":      `{"schema": "generic"}`,
		"hospital_2024.json": `{"schema": "year"}`,
		"ahq-long.yaml":      "schema: variant\n",
	})

	doc, err := l.Resolve("Hospital", 2024, "")
	require.NoError(t, err)
	assert.Equal(t, "year", doc.Schema)

	doc, err = l.Resolve("Hospital", 2023, "")
	require.NoError(t, err)
	assert.Equal(t, "generic", doc.Schema)

	doc, err = l.Resolve("Hospital", 2024, "ahq-long")
	require.NoError(t, err)
	assert.Equal(t, "variant", doc.Schema)
	assert.Equal(t, "/project/mappings/ahq-long.yaml", doc.Source)

	doc, err = l.Resolve("Hospital", 2024, "ahq-short")
	require.NoError(t, err)
	assert.Equal(t, "year", doc.Schema)
}

func TestLoader_JSONPreferredOverYAML(t *testing.T) {
	l := newTestLoader(map[string]string{
		"esrd.yml":  "schema: yml\n",
		"esrd.json": `{"schema": "json"}`,
	})

	doc, err := l.Resolve("ESRD", 2020, "")
	require.NoError(t, err)
	assert.Equal(t, "json", doc.Schema)
}

func TestLoader_NotFound(t *testing.T) {
	l := newTestLoader(map[string]string{"astc.json": `{}`})

	_, err := l.Resolve("Hospital", 2024, "ahq-long")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hfsrb.ErrConfiguration))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"ahq-long_2024", "ahq-long", "hospital_2024", "hospital"}, cfgErr.Candidates)
	assert.Contains(t, err.Error(), "Hospital 2024 (variant ahq-long)")
	assert.Equal(t, hfsrb.ExitMappingNotFound, hfsrb.ExitCodeForError(err))
}

func TestLoader_MalformedDocument(t *testing.T) {
	l := newTestLoader(map[string]string{"ltc.json": `{"direct": `})

	_, err := l.Resolve("LTC", 2024, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hfsrb.ErrMalformedInput))
	assert.False(t, errors.Is(err, hfsrb.ErrConfiguration))
}

func TestLoader_CachesDocuments(t *testing.T) {
	l := newTestLoader(map[string]string{"astc.json": `{"schema": "a"}`})

	var wg sync.WaitGroup
	docs := make([]*Document, 16)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := l.Resolve("ASTC", 2024, "")
			if err == nil {
				docs[i] = doc
			}
		}(i)
	}
	wg.Wait()

	for _, doc := range docs {
		require.NotNil(t, doc)
		assert.Same(t, docs[0], doc)
	}
}

func TestNewLoader_NilFileSystemPanics(t *testing.T) {
	assert.Panics(t, func() { NewLoader(nil, "mappings", nil) })
}

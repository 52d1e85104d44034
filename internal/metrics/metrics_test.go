package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.IncrementCompiled(ResultWritten)
	m.IncrementCompiled(ResultWritten)
	m.IncrementCompiled(ResultUnchanged)
	m.IncrementEntity("Hospital", OutcomeMapped)
	m.IncrementEntity("Hospital", OutcomeFailed)
	m.IncrementEntity("LTC", OutcomeMapped)
	m.IncrementValidationFailure("LTC")
	m.IncrementSinkWrite("file", ResultWritten)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SchemasCompiled.WithLabelValues(ResultWritten)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchemasCompiled.WithLabelValues(ResultUnchanged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntitiesProcessed.WithLabelValues("Hospital", OutcomeMapped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("LTC")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.EntitiesProcessed))
}

func TestMetrics_Histograms(t *testing.T) {
	m := New()
	m.ObserveUnmapped("ESRD", 12)
	m.ObserveMapLatency(3 * time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.UnmappedFields))
	assert.Equal(t, 1, testutil.CollectAndCount(m.MapLatency))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementCompiled(ResultFailed)
		m.IncrementEntity("Hospital", OutcomeSkipped)
		m.ObserveUnmapped("Hospital", 1)
		m.IncrementValidationFailure("Hospital")
		m.IncrementSinkWrite("s3", ResultFailed)
		m.ObserveMapLatency(time.Second)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.IncrementEntity("Hospital", OutcomeMapped)

	path := filepath.Join(t.TempDir(), "hfsrb.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data),
		`hfsrb_entities_processed_total{facility_type="Hospital",outcome="mapped"} 1`), string(data))
}

func TestMetrics_RegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.IncrementCompiled(ResultWritten)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.SchemasCompiled.WithLabelValues(ResultWritten)))
}

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

func TestObserveUnit(t *testing.T) {
	m := New()
	m.ObserveUnit("fetched", 12, 2*time.Second)
	m.ObserveUnit("fetched", 3, time.Second)
	m.ObserveUnit("skipped_cached", 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues("fetched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsTotal.WithLabelValues("skipped_cached")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.RecordsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UnitDuration))
}

func TestObserveAttempt(t *testing.T) {
	m := New()
	m.ObserveAttempt("error")
	m.ObserveAttempt("success")
	m.ObserveAttempt("error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchAttemptsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttemptsTotal.WithLabelValues("success")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveUnit("fetched", 1, time.Second)
	m.ObserveAttempt("success")
	m.MarkSuccess(time.Now())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, m.Registry())
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveUnit("fetched_empty", 0, time.Second)
	m.MarkSuccess(time.Unix(1710028800, 0))

	path := filepath.Join(t.TempDir(), "paperharvest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `paperharvest_units_total{outcome="fetched_empty"} 1`), text)
	assert.Contains(t, text, "# TYPE paperharvest_last_success_timestamp_seconds gauge")
}

package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordObservations("REALTIME", 40)
	m.RecordObservations("REALTIME", 0)
	m.RecordUnknown("rates", 2)
	m.RecordPhase("REALTIME", "OK", time.Second)
	m.RecordPhase("DAILY_AVERAGE", "FAILED", time.Second)
	m.RecordPublished("exchangeRate", 60, nil)
	m.RecordPublished("exchangeRate", 60, errors.New("down"))
	m.RecordCycle("rates", true, time.Minute, time.Unix(1700000000, 0))

	assert.Equal(t, 40.0, testutil.ToFloat64(m.ObservationsRecorded.WithLabelValues("REALTIME")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnknownKeys.WithLabelValues("rates")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseOutcomes.WithLabelValues("DAILY_AVERAGE", "FAILED")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.RecordsPublished.WithLabelValues("exchangeRate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors.WithLabelValues("exchangeRate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CycleRunsTotal.WithLabelValues("rates", "ok")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastSuccessfulCycle.WithLabelValues("rates")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordObservations("REALTIME", 1)
		m.RecordUnknown("rates", 1)
		m.RecordPhase("REALTIME", "OK", time.Second)
		m.RecordCycle("rates", true, time.Second, time.Now())
		m.RecordPublished("exchangeRate", 1, nil)
	})
}

func TestHandlerFor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.RecordUnknown("trends", 3)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_ingestion_unknown_keys_total{cycle_kind="trends"} 3`)
}

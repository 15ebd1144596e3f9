package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Independent(t *testing.T) {
	// two instances must not collide on registration
	a := NewMetrics()
	b := NewMetrics()

	a.RecordView("dashboard")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ViewsBuilt.WithLabelValues("dashboard")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ViewsBuilt.WithLabelValues("dashboard")))
}

func TestRecorders(t *testing.T) {
	m := NewMetrics()

	m.RecordSkipped(3)
	m.RecordSkipped(0)
	m.RecordSkipped(-1)
	m.RecordFetchFailure("sessions")
	m.RecordClassify("ok")
	m.ObserveAggregation(2 * time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures.WithLabelValues("sessions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClassifyCalls.WithLabelValues("ok")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordView("dashboard")
		m.RecordSkipped(1)
		m.RecordFetchFailure("rules")
		m.RecordClassify("error")
		m.ObserveAggregation(time.Second)
	})
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordView("insights")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `footprint_views_built_total{kind="insights"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

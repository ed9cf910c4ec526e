package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveExtraction("ok", 2, 1, 3*time.Millisecond)
	m.ObserveExtraction("empty_input", 0, 0, time.Microsecond)
	m.ObserveApproval("ok")
	m.ObserveReload(errors.New("boom"))
	m.SetCatalogSize(42)
	m.ObserveHTTP("POST", "/extract_symptoms", 200, 2*time.Millisecond)
	m.ObserveHTTP("POST", "/extract_symptoms", 400, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Extractions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Extractions.WithLabelValues("empty_input")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Validated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unknown))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Approvals.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.CatalogEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/extract_symptoms", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/extract_symptoms", "400")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveExtraction("ok", 1, 1, time.Second)
		m.ObserveApproval("ok")
		m.ObserveReload(nil)
		m.SetCatalogSize(1)
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	})
}

func TestResultLabel(t *testing.T) {
	errA := errors.New("a")
	labels := map[error]string{errA: "a_failed"}

	assert.Equal(t, "ok", ResultLabel(nil, labels))
	assert.Equal(t, "a_failed", ResultLabel(fmt.Errorf("wrapped: %w", errA), labels))
	assert.Equal(t, "error", ResultLabel(errors.New("other"), labels))
}

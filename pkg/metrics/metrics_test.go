package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveSubmission("band", "confirmed")
	m.ObserveSubmission("band", "confirmed")
	m.ObserveSubmission("bandmate", "failed")
	m.ObserveRefresh("applied", 10*time.Millisecond)
	m.ObserveDegraded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("band", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("bandmate", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.degraded))
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSubmission("band", "confirmed")
		m.ObserveVerification("band", 2)
		m.ObserveRefresh("failed", time.Second)
		m.ObserveDegraded()
	})
}

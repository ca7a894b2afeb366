package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for availability editing and refreshing.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	submissions    *prometheus.CounterVec
	verifyAttempts *prometheus.HistogramVec
	refreshes      *prometheus.CounterVec
	refreshLatency prometheus.Histogram
	degraded       prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandcal_submissions_total",
				Help: "Availability submissions by calendar kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		verifyAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bandcal_verify_attempts",
				Help:    "Fetches needed to confirm a submitted batch.",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
			[]string{"kind"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandcal_refreshes_total",
				Help: "Polling refreshes by result.",
			},
			[]string{"result"},
		),
		refreshLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bandcal_refresh_duration_seconds",
				Help:    "Duration of availability refresh fetches.",
				Buckets: prometheus.DefBuckets,
			},
		),
		degraded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bandcal_degraded_results_total",
				Help: "Final availability results built without bandmate input.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.submissions, m.verifyAttempts, m.refreshes, m.refreshLatency, m.degraded} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveSubmission counts a finished submission
func (m *Metrics) ObserveSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, outcome).Inc()
}

// ObserveVerification records how many fetches a confirmed batch took
func (m *Metrics) ObserveVerification(kind string, attempts int) {
	if m == nil {
		return
	}
	m.verifyAttempts.WithLabelValues(kind).Observe(float64(attempts))
}

// ObserveRefresh counts a refresh tick and its fetch duration
func (m *Metrics) ObserveRefresh(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
	if took > 0 {
		m.refreshLatency.Observe(took.Seconds())
	}
}

// ObserveDegraded counts a result that fell back to band-only data
func (m *Metrics) ObserveDegraded() {
	if m == nil {
		return
	}
	m.degraded.Inc()
}

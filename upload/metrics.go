package upload

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	swept    prometheus.Counter
}

// NewMetrics registers the upload metrics with reg:
//   - folio_upload_outcomes_total{outcome,reason}
//   - folio_upload_duration_seconds{outcome}
//   - folio_upload_swept_total
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "upload",
			Name:      "outcomes_total",
			Help:      "Uploads by terminal outcome and rejection reason",
		}, []string{"outcome", "reason"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Subsystem: "upload",
			Name:      "duration_seconds",
			Help:      "Time from receipt to terminal state",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"outcome"}),

		swept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "upload",
			Name:      "swept_total",
			Help:      "Orphaned upload files removed by the sweeper",
		}),
	}
}

func (m *Metrics) observe(outcome, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome, reason).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) sweptFile() {
	if m == nil {
		return
	}
	m.swept.Inc()
}

package metrics

import (
	"net/http"

	"quizdeck/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records quiz ingestion and grading outcomes for Prometheus.
type Metrics struct {
	uploads    *prometheus.CounterVec
	gradings   prometheus.Counter
	scoreRatio prometheus.Histogram
	gatherer   prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizdeck_uploads_total",
				Help: "Quiz uploads by outcome",
			},
			[]string{"outcome"},
		),
		gradings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizdeck_gradings_total",
			Help: "Submissions graded and recorded",
		}),
		scoreRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quizdeck_score_ratio",
			Help:    "Score divided by question count per graded submission",
			Buckets: []float64{0, 0.25, 0.5, 0.75, 1},
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.uploads, m.gradings, m.scoreRatio)
	return m
}

func (m *Metrics) ObserveUpload(outcome string) {
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGrade(report domain.ScoreReport) {
	m.gradings.Inc()
	if report.Total > 0 {
		m.scoreRatio.Observe(float64(report.Score) / float64(report.Total))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

package pkg

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects report and scoring counters. Services accept a nil
// *Metrics and skip recording.
type Metrics struct {
	registry         *prometheus.Registry
	reportLatency    *prometheus.HistogramVec
	reportErrors     *prometheus.CounterVec
	scoresSubmitted  *prometheus.CounterVec
	scoringAnomalies prometheus.Counter
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		reportLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "judging_report_duration_seconds",
				Help:    "Time spent fetching and aggregating a competition report.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"report"},
		),
		reportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judging_report_errors_total",
				Help: "Reports that failed because score data was unavailable.",
			},
			[]string{"report"},
		),
		scoresSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judging_scores_submitted_total",
				Help: "Score rows written by judges.",
			},
			[]string{"kind"},
		),
		scoringAnomalies: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "judging_score_anomalies_total",
				Help: "Conflicting score rows resolved while building reports.",
			},
		),
	}
}

func (m *Metrics) RecordReport(report string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.reportLatency.WithLabelValues(report).Observe(duration.Seconds())
	if err != nil {
		m.reportErrors.WithLabelValues(report).Inc()
	}
}

func (m *Metrics) RecordScores(draft bool, n int) {
	if m == nil {
		return
	}
	kind := "final"
	if draft {
		kind = "draft"
	}
	m.scoresSubmitted.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) RecordAnomalies(n int) {
	if m == nil || n == 0 {
		return
	}
	m.scoringAnomalies.Add(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

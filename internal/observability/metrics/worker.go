package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkorneev/scholarmatch/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	analysisInFlight prometheus.Gauge
	matchTierTotal   *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarmatch",
			Subsystem: "worker",
			Name:      "analysis_total",
			Help:      "Total researcher analyses by status.",
		},
		[]string{"service", "status"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scholarmatch",
			Subsystem: "worker",
			Name:      "analysis_duration_seconds",
			Help:      "Researcher analysis duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	analysisInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scholarmatch",
			Subsystem: "worker",
			Name:      "analysis_in_flight",
			Help:      "Number of in-flight researcher analyses.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	matchTierTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarmatch",
			Subsystem: "worker",
			Name:      "match_tier_total",
			Help:      "Completed analyses by match tier.",
		},
		[]string{"service", "tier"},
	)

	registry.MustRegister(analysisTotal, analysisDuration, analysisInFlight, matchTierTotal)

	return &WorkerMetrics{
		registry:         registry,
		analysisTotal:    analysisTotal,
		analysisDuration: analysisDuration,
		analysisInFlight: analysisInFlight,
		matchTierTotal:   matchTierTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartAnalysis() {
	m.analysisInFlight.Inc()
}

func (m *WorkerMetrics) FinishAnalysis(service string, duration time.Duration, err error) {
	m.analysisInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.analysisTotal.WithLabelValues(service, status).Inc()
	m.analysisDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

// Meter adapts the worker metrics to the analysis meter contract.
func (m *WorkerMetrics) Meter(service string) *TierMeter {
	return &TierMeter{counter: m.matchTierTotal, service: service}
}

type TierMeter struct {
	counter *prometheus.CounterVec
	service string
}

func (t *TierMeter) ObserveMatchTier(tier domain.MatchType) {
	label := string(tier)
	if label == "" {
		label = "unknown"
	}
	t.counter.WithLabelValues(t.service, label).Inc()
}

package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docentlabs/docent/pkg/domain"
)

// Metrics exports engine lifecycle events as Prometheus series. Wire
// the result of Hooks into the session manager and mount Handler on an
// HTTP mux.
type Metrics struct {
	registry *prometheus.Registry

	toursStarted    *prometheus.CounterVec
	toursEnded      *prometheus.CounterVec
	stepsShown      *prometheus.CounterVec
	stepResolutions *prometheus.CounterVec
	resolveSeconds  *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
}

// MetricsOption configures a Metrics set.
type MetricsOption func(*Metrics)

// WithRegistry collects into an existing registry instead of a fresh
// one, for processes that already expose Prometheus metrics.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(m *Metrics) {
		m.registry = registry
	}
}

// NewMetrics builds the metric set and registers it. Registration
// panics if the same names are already present, so build one Metrics
// per registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		toursStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_tours_started_total",
				Help: "Tour sessions started.",
			},
			[]string{"tour"},
		),
		toursEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_tours_ended_total",
				Help: "Tour sessions ended, by outcome.",
			},
			[]string{"tour", "outcome"},
		),
		stepsShown: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_steps_shown_total",
				Help: "Steps that became current.",
			},
			[]string{"tour"},
		),
		stepResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docent_step_resolutions_total",
				Help: "Step target resolutions, by how the target was found.",
			},
			[]string{"tour", "result"},
		),
		resolveSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docent_step_resolve_seconds",
				Help:    "Step target resolution latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tour"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docent_active_sessions",
				Help: "Tour sessions currently running.",
			},
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.registry.MustRegister(
		m.toursStarted,
		m.toursEnded,
		m.stepsShown,
		m.stepResolutions,
		m.resolveSeconds,
		m.activeSessions,
	)
	return m
}

// Registry exposes the backing registry, for callers that gather
// programmatically or register their own collectors alongside.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record every event into the
// metric set. Combine with other hook sets via domain.MergeHooks.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnTourStart: func(_ context.Context, e *domain.TourEvent) {
			m.toursStarted.WithLabelValues(e.TourName).Inc()
			m.activeSessions.Inc()
		},
		OnStepShown: func(_ context.Context, e *domain.StepEvent) {
			m.stepsShown.WithLabelValues(e.TourName).Inc()
		},
		OnStepResolved: func(_ context.Context, e *domain.StepEvent) {
			m.stepResolutions.WithLabelValues(e.TourName, resolution(e)).Inc()
			m.resolveSeconds.WithLabelValues(e.TourName).Observe(e.Elapsed.Seconds())
		},
		OnTourEnd: func(_ context.Context, e *domain.TourEvent) {
			m.activeSessions.Dec()
			m.toursEnded.WithLabelValues(e.TourName, outcomeLabel(e.Outcome)).Inc()
		},
	}
}

// resolution classifies how a step's target was found: by its primary
// locator, by a fallback locator, or not at all.
func resolution(e *domain.StepEvent) string {
	switch {
	case e.Degraded || e.LocatorIndex < 0:
		return "degraded"
	case e.LocatorIndex > 0:
		return "fallback"
	default:
		return "primary"
	}
}

func outcomeLabel(outcome *domain.Outcome) string {
	if outcome != nil && outcome.Completed {
		return "completed"
	}
	return "skipped"
}

package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parley"

// Outcome label values of the generations counter.
const (
	OutcomeOK      = "ok"
	OutcomeFailure = "failure"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	stepVisits  *prometheus.CounterVec
	generations *prometheus.CounterVec
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		stepVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_visits_total",
				Help:      "Total number of step visits",
			},
			[]string{"step_id", "kind"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Answer requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of answer requests",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "generations_in_flight",
				Help:      "Answer requests currently pending",
			},
		),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.stepVisits, m.generations, m.duration, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.stepVisits.WithLabelValues(e.StepID, string(e.Kind)).Inc()
		},
		OnGenerateStart: func(context.Context, *domain.GenerationEvent) {
			m.inFlight.Inc()
		},
		OnGenerateFinish: func(_ context.Context, e *domain.GenerationEvent) {
			m.inFlight.Dec()
			m.duration.Observe(e.Duration.Seconds())
			outcome := OutcomeOK
			if e.Failed() {
				outcome = OutcomeFailure
			}
			m.generations.WithLabelValues(outcome).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

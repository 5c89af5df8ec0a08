package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// Metrics is a ports.Observer that exports run progress as Prometheus
// metrics.
type Metrics struct {
	stepsTotal         *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	eventsUnclassified prometheus.Counter
	stateKeys          prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on the given
// registerer. Pass prometheus.DefaultRegisterer for the process-global
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_steps_total",
				Help: "Total number of executed workflow steps",
			},
			[]string{"node"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_runs_total",
				Help: "Total number of finished workflow runs",
			},
			[]string{"status"},
		),
		eventsUnclassified: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "weft_observer_events_unclassified_total",
				Help: "Events received with an unknown type",
			},
		),
		stateKeys: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weft_state_keys",
				Help:    "Number of top-level keys in the state after each step",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}
	reg.MustRegister(m.stepsTotal, m.runsTotal, m.eventsUnclassified, m.stateKeys)
	return m
}

var _ ports.Observer = (*Metrics)(nil)

// StepsTotal exposes the step counter, mainly for inspection in tests.
func (m *Metrics) StepsTotal() *prometheus.CounterVec {
	return m.stepsTotal
}

// RunsTotal exposes the finished-run counter, mainly for inspection in tests.
func (m *Metrics) RunsTotal() *prometheus.CounterVec {
	return m.runsTotal
}

// Notify implements ports.Observer.
func (m *Metrics) Notify(ctx context.Context, ev domain.Event) {
	switch ev.Type {
	case domain.EventStepComplete:
		m.stepsTotal.WithLabelValues(ev.Node).Inc()
		m.stateKeys.Observe(float64(len(ev.State)))
	case domain.EventWorkflowComplete:
		m.runsTotal.WithLabelValues("completed").Inc()
	case domain.EventError:
		m.runsTotal.WithLabelValues("failed").Inc()
	case domain.EventConnected:
		// Transport-level greeting, nothing to count.
	default:
		m.eventsUnclassified.Inc()
	}
}

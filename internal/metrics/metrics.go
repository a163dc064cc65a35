// Package metrics exports propagation counters to Prometheus.
//
// Metrics implements the engine observer interface. Attach it with
// engine.WithObserver; every propagator execution updates the counters.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/arcflow/internal/trace"
)

const (
	metricsNamespace = "arcflow"
	engineSubsystem  = "engine"
)

// Metrics holds the propagation counters of one registry.
type Metrics struct {
	// StepsTotal counts propagator executions by propagator and outcome.
	StepsTotal *prometheus.CounterVec

	// ChangesTotal counts executions that modified a domain.
	ChangesTotal *prometheus.CounterVec

	// ContradictionsTotal counts failing executions by propagator.
	ContradictionsTotal *prometheus.CounterVec

	// LastSeq is the last logical clock value observed.
	LastSeq prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the counters with reg. Passing a fresh prometheus.Registry
// keeps runs isolated from the global default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "steps_total",
				Help:      "Total propagator executions by propagator and outcome",
			},
			[]string{"prop", "outcome"},
		),
		ChangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "changes_total",
				Help:      "Propagator executions that changed at least one domain",
			},
			[]string{"prop"},
		),
		ContradictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "contradictions_total",
				Help:      "Contradictions raised by propagator",
			},
			[]string{"prop"},
		),
		LastSeq: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "last_seq",
				Help:      "Logical clock value of the last execution",
			},
		),
		gatherer: reg,
	}
}

func (m *Metrics) OnStep(s trace.Step) {
	m.record(s)
}

func (m *Metrics) OnContradiction(s trace.Step) {
	m.record(s)
	m.ContradictionsTotal.WithLabelValues(s.Prop).Inc()
}

func (m *Metrics) record(s trace.Step) {
	m.StepsTotal.WithLabelValues(s.Prop, string(s.Outcome)).Inc()
	if s.Changed {
		m.ChangesTotal.WithLabelValues(s.Prop).Inc()
	}
	m.LastSeq.Set(float64(s.Seq))
}

// WriteText writes every registered metric in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

package observability

import (
	"net/http"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of the form runtime.
type Metrics struct {
	registry *prometheus.Registry

	answers        prometheus.Counter
	changes        *prometheus.CounterVec
	reconciles     prometheus.Counter
	reconcileNodes *prometheus.CounterVec
	duration       prometheus.Histogram
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		answers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fullform_answers_total",
			Help: "Answer notifications sent after the throttle interval",
		}),
		changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fullform_node_changes_total",
				Help: "Node change notifications",
			},
			[]string{"kind", "node_type"},
		),
		reconciles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fullform_reconciles_total",
			Help: "Completed tree reconciliations",
		}),
		reconcileNodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fullform_reconciled_nodes_total",
				Help: "Nodes touched by reconciliation",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fullform_reconcile_duration_seconds",
			Help:    "Duration of tree reconciliation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.answers, m.changes, m.reconciles, m.reconcileNodes, m.duration)
	return m
}

// Registry exposes the registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records every form event.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnAnswer: func(domain.AnswerEvent) {
			m.answers.Inc()
		},
		OnChange: func(e domain.ChangeEvent) {
			m.changes.WithLabelValues(string(e.Kind), string(e.NodeType)).Inc()
		},
		OnReconcile: func(e domain.ReconcileEvent) {
			m.reconciles.Inc()
			m.duration.Observe(e.Duration.Seconds())
			m.reconcileNodes.WithLabelValues(string(domain.ChangeUpdated)).Add(float64(e.Stats.Updated))
			m.reconcileNodes.WithLabelValues(string(domain.ChangeReplaced)).Add(float64(e.Stats.Replaced))
			m.reconcileNodes.WithLabelValues(string(domain.ChangeAdded)).Add(float64(e.Stats.Added))
			m.reconcileNodes.WithLabelValues(string(domain.ChangeRemoved)).Add(float64(e.Stats.Removed))
		},
	}
}

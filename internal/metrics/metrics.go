package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	registry *prometheus.Registry

	// Execution metrics
	ToolExecutionsTotal      *prometheus.CounterVec
	ToolExecutionDuration    *prometheus.HistogramVec
	ToolExecutionErrorsTotal *prometheus.CounterVec
	ToolTimeoutsTotal        *prometheus.CounterVec

	// Selection metrics
	SelectionsTotal   prometheus.Counter
	ToolsPerSelection prometheus.Histogram

	// Recovery metrics
	RecoveriesTotal *prometheus.CounterVec
}

// New creates and registers all metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
		ToolExecutionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_execution_errors_total",
				Help: "Total number of tool execution errors",
			},
			[]string{"tool_name", "error_kind"},
		),
		ToolTimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_timeouts_total",
				Help: "Total number of tool executions that exceeded their timeout",
			},
			[]string{"tool_name"},
		),

		SelectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tool_selections_total",
				Help: "Total number of tool selection calls",
			},
		),
		ToolsPerSelection: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tools_per_selection",
				Help:    "Number of tools recommended per selection call",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),

		RecoveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recoveries_total",
				Help: "Total number of recovery decisions by strategy",
			},
			[]string{"strategy"},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry.
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.ToolExecutionsTotal)
	m.registry.MustRegister(m.ToolExecutionDuration)
	m.registry.MustRegister(m.ToolExecutionErrorsTotal)
	m.registry.MustRegister(m.ToolTimeoutsTotal)

	m.registry.MustRegister(m.SelectionsTotal)
	m.registry.MustRegister(m.ToolsPerSelection)

	m.registry.MustRegister(m.RecoveriesTotal)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

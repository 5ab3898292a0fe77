// Package metrics holds the Prometheus collectors for upstream fetches, tool
// calls and chat turns.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamFetches       *prometheus.CounterVec
	UpstreamFetchDuration prometheus.Histogram
	ToolCalls             *prometheus.CounterVec
	ChatTurns             *prometheus.CounterVec
	ChatTurnDuration      *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpstreamFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sirrus_upstream_fetch_total",
				Help: "Total number of leads API fetches by outcome",
			},
			[]string{"outcome"},
		),
		UpstreamFetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sirrus_upstream_fetch_duration_seconds",
				Help:    "Duration of leads API fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sirrus_tool_calls_total",
				Help: "Total number of lead tool calls by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		ChatTurns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sirrus_chat_turns_total",
				Help: "Total number of chat turns by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ChatTurnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sirrus_chat_turn_duration_seconds",
				Help:    "Duration of chat turns in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"kind"},
		),
	}
}

// ObserveFetch records one upstream fetch. It matches leadsapi.WithObserver.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	m.UpstreamFetches.WithLabelValues(outcome).Inc()
	m.UpstreamFetchDuration.Observe(d.Seconds())
}

// ToolCalled records one tool call.
func (m *Metrics) ToolCalled(tool, outcome string) {
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// TurnFinished records one chat or query turn.
func (m *Metrics) TurnFinished(kind, outcome string, d time.Duration) {
	m.ChatTurns.WithLabelValues(kind, outcome).Inc()
	m.ChatTurnDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

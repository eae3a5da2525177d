// Package metrics defines the Prometheus collectors for the negotiation
// core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the server updates. One instance is shared
// by all connections.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	CommandsTotal     *prometheus.CounterVec
	MalformedTotal    prometheus.Counter
	UnknownResults    prometheus.Counter
	ForceRounds       prometheus.Counter
	ForceRetries      prometheus.Counter
	PendingActions    prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neuro_connections_total",
			Help: "Total number of accepted game connections",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neuro_connections_active",
			Help: "Number of currently connected games",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neuro_commands_total",
			Help: "Inbound commands by tag; tags outside the catalog count as unknown",
		}, []string{"command"}),
		MalformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neuro_malformed_envelopes_total",
			Help: "Well-framed envelopes dropped for structural problems",
		}),
		UnknownResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neuro_unknown_results_total",
			Help: "Action results dropped because no waiter matched their id",
		}),
		ForceRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neuro_force_rounds_total",
			Help: "Force-action rounds started",
		}),
		ForceRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neuro_force_retries_total",
			Help: "Force-action submissions rejected by the game and retried",
		}),
		PendingActions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neuro_pending_actions",
			Help: "Action requests awaiting a result across all connections",
		}),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.CommandsTotal,
		m.MalformedTotal,
		m.UnknownResults,
		m.ForceRounds,
		m.ForceRetries,
		m.PendingActions,
	)
	return m
}

// NewNop creates collectors bound to a private registry, for tests and
// library embedders that do not scrape.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

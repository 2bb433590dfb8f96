// Package metrics exposes Prometheus counters for the chat server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_connections_accepted_total",
			Help: "Total client connections accepted",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_active_sessions",
			Help: "Currently connected sessions",
		},
	)

	MessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_messages_relayed_total",
			Help: "Total chat messages fanned out to a room",
		},
	)

	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	ProtocolViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_protocol_violations_total",
			Help: "Sessions dropped for undecryptable or malformed envelopes",
		},
	)
)

// Handler serves the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }

// Package metrics exposes the relay's Prometheus instrumentation. Every
// counter here is registered once, at import time, and updated inline by
// the component it describes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nostr_relay_active_connections",
		Help: "Number of open WebSocket sessions.",
	})

	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nostr_relay_active_subscriptions",
		Help: "Number of open subscriptions across all sessions.",
	})

	CommandsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nostr_relay_commands_received_total",
		Help: "Client->server frames received by discriminator.",
	}, []string{"type"})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nostr_relay_events_processed_total",
		Help: "EVENT frames that passed validation and were newly stored, by kind.",
	}, []string{"kind"})

	EventsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nostr_relay_events_stored_total",
		Help: "Events newly persisted to the store.",
	})

	DuplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nostr_relay_duplicate_events_total",
		Help: "Events rejected because the store already held that id.",
	})

	InvalidEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nostr_relay_invalid_events_total",
		Help: "Events rejected by the validator, by reason.",
	}, []string{"reason"})

	MessagesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nostr_relay_messages_dispatched_total",
		Help: "EVENT frames written out to matching subscriptions.",
	})

	DispatchDroppedSlow = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nostr_relay_dispatch_dropped_slow_total",
		Help: "Deliveries dropped because a session's outbound queue was full.",
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nostr_relay_store_errors_total",
		Help: "Storage engine failures, by operation.",
	}, []string{"operation"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nostr_relay_query_duration_seconds",
		Help:    "Latency of historical REQ range scans.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})
)

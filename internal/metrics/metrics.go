// Package metrics exposes the core's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_connections_active",
		Help: "Connections currently registered in the arena.",
	})
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_rooms_active",
		Help: "Rooms currently registered in the arena.",
	})
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_events_processed_total",
		Help: "Inbound room events drained by the event loop.",
	})
	SyncPatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_sync_patches_total",
		Help: "State patches delivered to connection mailboxes.",
	})
	WSMessagesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_ws_messages_in_total",
		Help: "Frames received from websocket clients.",
	})
	WSMessagesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_ws_messages_out_total",
		Help: "Frames written to websocket clients.",
	})
)

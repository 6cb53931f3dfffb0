// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lingochat_messages_saved_total",
		Help: "Messages persisted to the message store.",
	})

	MessagesPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lingochat_messages_pushed_total",
		Help: "Insert events fanned out over the push channel.",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lingochat_ws_connections",
		Help: "Currently open websocket connections.",
	})
)

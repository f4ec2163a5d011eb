package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_clients",
		Help: "Number of currently connected clients",
	})

	messagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total messages broadcast by kind",
	}, []string{"kind"})

	broadcastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_broadcast_duration_seconds",
		Help:    "Time to fan one message out to all recipients",
		Buckets: prometheus.DefBuckets,
	})

	deliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_delivery_failures_total",
		Help: "Per-recipient write failures during broadcast",
	})

	historyEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_history_entries",
		Help: "Chat messages currently retained in the in-memory history",
	})
)

func init() {
	prometheus.MustRegister(connectedClients)
	prometheus.MustRegister(messagesTotal)
	prometheus.MustRegister(broadcastDuration)
	prometheus.MustRegister(deliveryFailures)
	prometheus.MustRegister(historyEntries)
}

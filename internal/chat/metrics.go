package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_clients",
		Help: "Number of currently connected clients",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total inbound lines processed by command type",
	}, []string{"type"})

	EventProcessingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_event_processing_seconds",
		Help:    "Time to route each command type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	SharedBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_shared_bytes_total",
		Help: "Decoded bytes of uploaded files by detected media type",
	}, []string{"mime"})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(EventProcessingDuration)
	prometheus.MustRegister(SharedBytesTotal)
}

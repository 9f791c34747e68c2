package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesSaved counts chat messages persisted, by channel
	MessagesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agriconnect",
		Name:      "chat_messages_saved_total",
		Help:      "Number of chat messages persisted to the store.",
	}, []string{"channel"})

	// MessagesRejected counts inbound messages dropped for empty text
	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agriconnect",
		Name:      "chat_messages_rejected_total",
		Help:      "Number of inbound chat messages rejected before persistence.",
	}, []string{"channel"})

	// AssistantReplies counts assistant responses by outcome:
	// keyword, remote, onboarding, or one of the fallback tiers.
	AssistantReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agriconnect",
		Name:      "assistant_replies_total",
		Help:      "Number of assistant replies generated, by outcome.",
	}, []string{"outcome"})

	// Connections tracks currently open WebSocket connections per channel
	Connections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "agriconnect",
		Name:      "websocket_connections",
		Help:      "Currently open WebSocket connections.",
	}, []string{"channel"})

	// HistoryCacheHits counts redis history cache hits and misses
	HistoryCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agriconnect",
		Name:      "history_cache_requests_total",
		Help:      "Chat history cache lookups, by result.",
	}, []string{"result"})
)

// Handler returns a gin handler exposing the Prometheus registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

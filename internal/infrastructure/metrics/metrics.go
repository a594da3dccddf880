package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversation-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Saved message counter
	MessagesSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "messages_saved_total",
			Help:      "Total messages persisted",
		},
		[]string{"direction", "message_type"},
	)

	// Change feed counters
	FeedEventsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "feed_events_published_total",
			Help:      "Total change feed events published to the bus",
		},
	)

	FeedLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "feed_lag_messages",
			Help:      "Messages committed but not yet published to the bus",
		},
	)

	// Streaming gauges and counters
	ActiveStreamSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "active_stream_sessions",
			Help:      "Currently open streaming sessions",
		},
	)

	StreamEventsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "stream_events_sent_total",
			Help:      "Total events written to streaming clients",
		},
		[]string{"event"},
	)

	StreamEventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "stream_events_dropped_total",
			Help:      "Total events dropped because a client buffer was full",
		},
	)

	// Workflow engine dispatch counter
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agentmesh",
			Subsystem: "conversation_api",
			Name:      "workflow_dispatch_total",
			Help:      "Total workflow engine notifications",
		},
		[]string{"status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// MessagesSaved records a persisted message
func MessagesSaved(direction, messageType string) {
	MessagesSavedTotal.WithLabelValues(direction, messageType).Inc()
}

// FeedPublished records change feed events reaching the bus
func FeedPublished(count int) {
	FeedEventsPublishedTotal.Add(float64(count))
}

// SetFeedLag sets the current change feed lag
func SetFeedLag(lag int) {
	FeedLag.Set(float64(lag))
}

// StreamEventSent records an event written to a streaming client
func StreamEventSent(event string) {
	StreamEventsSentTotal.WithLabelValues(event).Inc()
}

// RecordDispatch records a workflow engine notification outcome
func RecordDispatch(status string) {
	DispatchTotal.WithLabelValues(status).Inc()
}

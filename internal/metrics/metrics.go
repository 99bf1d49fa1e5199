package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Lifecycle engine metrics
	// ============================================
	LifecycleTransitionsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_lifecycle_transitions_accepted_total",
			Help: "Total number of accepted batch lifecycle transitions",
		},
		[]string{"action"},
	)

	LifecycleTransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_lifecycle_transitions_rejected_total",
			Help: "Total number of rejected batch lifecycle transitions",
		},
		[]string{"action", "error_class"},
	)

	AuditChainLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backend_audit_chain_length",
			Help: "Number of audit log entries per batch",
		},
		[]string{"batch_id"},
	)

	// ============================================
	// Database connection metrics
	// ============================================
	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	// ============================================
	// NATS publish metrics
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"event_type"},
	)

	NATSPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_nats_publish_failed_total",
			Help: "Total number of NATS messages that failed to publish",
		},
		[]string{"event_type"},
	)

	// ============================================
	// WebSocket push metrics
	// ============================================
	WebSocketClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_websocket_clients_connected",
		Help: "Number of connected WebSocket subscribers",
	})

	WebSocketMessagesPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_websocket_messages_pushed_total",
		Help: "Total number of messages pushed to WebSocket subscribers",
	})
)

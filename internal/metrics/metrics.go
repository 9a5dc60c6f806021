package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatwire"

// Drop reasons for MessagesDropped.
const (
	ReasonNotBinary   = "not_binary"
	ReasonDecodeError = "decode_error"
)

var (
	// ConnectionUp is 1 while the connection is open, else 0.
	ConnectionUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connection_up",
		Help:      "Whether the WebSocket connection is currently open.",
	})

	// MessagesSent counts request frames transmitted.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Request frames transmitted to the server.",
	})

	// MessagesReceived counts successfully decoded response frames.
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_received_total",
		Help:      "Response frames decoded from the server.",
	})

	// MessagesDropped counts inbound messages discarded before dispatch.
	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_dropped_total",
		Help:      "Inbound messages dropped, by reason.",
	}, []string{"reason"})

	// ArchiveInserts counts rows written by the message archive.
	ArchiveInserts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archive_inserts_total",
		Help:      "Message rows inserted by the archive writer.",
	})

	// ArchiveErrors counts failed archive batch inserts.
	ArchiveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archive_errors_total",
		Help:      "Archive batch inserts that failed.",
	})
)

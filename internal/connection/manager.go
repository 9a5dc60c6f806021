package connection

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmerrick/chatwire/internal/metrics"
	"github.com/dmerrick/chatwire/internal/protocol"
	"github.com/dmerrick/chatwire/internal/state"
)

// Manager opens connections and binds their lifecycle to the store.
type Manager struct {
	cfg    ManagerConfig
	store  *state.Store
	logger *slog.Logger
}

// NewManager creates a new Connection Manager.
func NewManager(cfg ManagerConfig, store *state.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Open creates one transport targeting the configured endpoint and wires
// its lifecycle into the store. Every call creates a fresh, independent
// transport; callers decide when a new connection attempt is warranted.
//
// The NewTransport event is published before any callback can fire, so
// the store holds the handle before the first message arrives. Each
// registered callback is handed to the store as a NewCallback event; the
// store owns it until disconnect teardown.
func (m *Manager) Open(ctx context.Context) Transport {
	gen := uuid.New()
	logger := m.logger.With("generation", gen)

	t := NewTransport(TransportConfig{
		URL:              m.cfg.URL,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
	}, logger)

	m.store.Dispatch(state.NewTransport{Transport: t})

	release := t.OnOpen(func() {
		logger.Info("connected", "url", m.cfg.URL)
		m.store.Dispatch(state.Connected{})
	})
	m.store.Dispatch(state.NewCallback{Handle: state.NewHandle(gen, release)})

	release = t.OnClose(func() {
		logger.Info("connection closed")
		m.store.Dispatch(state.Disconnected{})
	})
	m.store.Dispatch(state.NewCallback{Handle: state.NewHandle(gen, release)})

	// Errors collapse into the same Disconnected transition as close.
	release = t.OnError(func(err error) {
		logger.Warn("connection error", "error", err)
		m.store.Dispatch(state.Disconnected{})
	})
	m.store.Dispatch(state.NewCallback{Handle: state.NewHandle(gen, release)})

	release = t.OnMessage(func(data []byte, binary bool) {
		m.handleMessage(logger, data, binary)
	})
	m.store.Dispatch(state.NewCallback{Handle: state.NewHandle(gen, release)})

	t.Connect(ctx)
	return t
}

// handleMessage decodes one inbound message and dispatches it. Malformed
// messages are dropped with a diagnostic log and no state change.
func (m *Manager) handleMessage(logger *slog.Logger, data []byte, binary bool) {
	if !binary {
		logger.Warn("dropping non-binary message from server", "bytes", len(data))
		metrics.MessagesDropped.WithLabelValues(metrics.ReasonNotBinary).Inc()
		return
	}

	resp, err := protocol.DecodeResponse(data)
	if err != nil {
		logger.Warn("failed to decode server message", "error", err, "bytes", len(data))
		metrics.MessagesDropped.WithLabelValues(metrics.ReasonDecodeError).Inc()
		return
	}

	logger.Debug("decoded message",
		"id", resp.ID,
		"sender", resp.Sender,
		"server_ts_ms", resp.ServerTsMs,
	)
	metrics.MessagesReceived.Inc()

	m.store.Dispatch(state.MessageReceived{Response: *resp})
}

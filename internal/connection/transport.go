package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is one bidirectional binary message channel. Exactly one
// handler may be registered per lifecycle slot; each setter returns a
// release function that unregisters the handler again. Handlers are
// invoked from the transport's own goroutines, never synchronously with
// registration.
type Transport interface {
	// OnOpen registers the handler fired once the connection is established.
	OnOpen(fn func()) (release func())

	// OnClose registers the handler fired when the peer closes the
	// connection.
	OnClose(fn func()) (release func())

	// OnError registers the handler fired on dial or read failure.
	OnError(fn func(err error)) (release func())

	// OnMessage registers the handler fired for every inbound message.
	// binary reports whether the message arrived as a binary frame.
	OnMessage(fn func(data []byte, binary bool)) (release func())

	// Connect starts dialing in the background. Outcomes are delivered
	// through the registered handlers.
	Connect(ctx context.Context)

	// Send writes one binary message to the connection.
	Send(data []byte) error

	// Close gracefully closes the connection. Idempotent.
	Close() error
}

// wsTransport implements Transport over gorilla/websocket.
type wsTransport struct {
	cfg    TransportConfig
	logger *slog.Logger

	// Write serialization
	writeMu sync.Mutex

	// Connection state
	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	closed    bool

	// Handlers (one slot each)
	handlerMu sync.RWMutex
	onOpen    func()
	onClose   func()
	onError   func(error)
	onMessage func([]byte, bool)

	done     chan struct{}
	downOnce sync.Once // close/error delivered at most once
}

// NewTransport creates an unconnected transport for the given endpoint.
func NewTransport(cfg TransportConfig, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &wsTransport{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (t *wsTransport) OnOpen(fn func()) func() {
	t.handlerMu.Lock()
	t.onOpen = fn
	t.handlerMu.Unlock()
	return func() {
		t.handlerMu.Lock()
		t.onOpen = nil
		t.handlerMu.Unlock()
	}
}

func (t *wsTransport) OnClose(fn func()) func() {
	t.handlerMu.Lock()
	t.onClose = fn
	t.handlerMu.Unlock()
	return func() {
		t.handlerMu.Lock()
		t.onClose = nil
		t.handlerMu.Unlock()
	}
}

func (t *wsTransport) OnError(fn func(error)) func() {
	t.handlerMu.Lock()
	t.onError = fn
	t.handlerMu.Unlock()
	return func() {
		t.handlerMu.Lock()
		t.onError = nil
		t.handlerMu.Unlock()
	}
}

func (t *wsTransport) OnMessage(fn func([]byte, bool)) func() {
	t.handlerMu.Lock()
	t.onMessage = fn
	t.handlerMu.Unlock()
	return func() {
		t.handlerMu.Lock()
		t.onMessage = nil
		t.handlerMu.Unlock()
	}
}

// Connect dials the endpoint in the background. On success the open
// handler fires and the read loop starts; on failure the error handler
// fires.
func (t *wsTransport) Connect(ctx context.Context) {
	go func() {
		dialer := websocket.Dialer{
			HandshakeTimeout: t.cfg.HandshakeTimeout,
		}

		conn, _, err := dialer.DialContext(ctx, t.cfg.URL, nil)
		if err != nil {
			t.logger.Debug("dial failed", "url", t.cfg.URL, "error", err)
			t.fireError(err)
			return
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			conn.Close()
			return
		}
		t.conn = conn
		t.connected = true
		t.mu.Unlock()

		t.logger.Debug("websocket connected", "url", t.cfg.URL)
		t.fireOpen()

		t.readLoop(conn)
	}()
}

// Send writes one binary message.
func (t *wsTransport) Send(data []byte) error {
	t.mu.RLock()
	conn := t.conn
	ok := t.connected
	t.mu.RUnlock()

	if !ok || conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close gracefully closes the connection.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.connected = false
	conn := t.conn
	t.mu.Unlock()

	close(t.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}
	return nil
}

// readLoop delivers inbound messages until the connection drops.
func (t *wsTransport) readLoop(conn *websocket.Conn) {
	defer func() {
		t.mu.Lock()
		t.connected = false
		t.mu.Unlock()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			// Ignore errors after Close() is called.
			select {
			case <-t.done:
				return
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.fireClose()
			} else {
				t.fireError(err)
			}
			return
		}

		t.handlerMu.RLock()
		fn := t.onMessage
		t.handlerMu.RUnlock()
		if fn != nil {
			fn(data, msgType == websocket.BinaryMessage)
		}
	}
}

func (t *wsTransport) fireOpen() {
	t.handlerMu.RLock()
	fn := t.onOpen
	t.handlerMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (t *wsTransport) fireClose() {
	t.downOnce.Do(func() {
		t.handlerMu.RLock()
		fn := t.onClose
		t.handlerMu.RUnlock()
		if fn != nil {
			fn()
		}
	})
}

func (t *wsTransport) fireError(err error) {
	t.downOnce.Do(func() {
		t.handlerMu.RLock()
		fn := t.onError
		t.handlerMu.RUnlock()
		if fn != nil {
			fn(err)
		}
	})
}

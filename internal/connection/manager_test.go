package connection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmerrick/chatwire/internal/protocol"
	"github.com/dmerrick/chatwire/internal/state"
)

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func startStore(t *testing.T) *state.Store {
	t.Helper()
	store := state.NewStore(nil)
	if err := store.Start(context.Background()); err != nil {
		t.Fatalf("store start failed: %v", err)
	}
	t.Cleanup(func() { store.Stop(context.Background()) })
	return store
}

func testManagerConfig(url string) ManagerConfig {
	cfg := DefaultManagerConfig()
	cfg.URL = url
	return cfg
}

func TestManager_OpenWiresLifecycle(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})
	defer server.Close()

	store := startStore(t)
	mgr := NewManager(testManagerConfig(wsURL(server)), store, nil)

	tr := mgr.Open(context.Background())
	defer tr.Close()

	waitFor(t, func() bool { return store.Model().Network.Connected }, "connected state")

	m := store.Model()
	if m.Network.Transport == nil {
		t.Error("store holds no transport handle")
	}
	if len(m.Network.Callbacks) != 4 {
		t.Errorf("store owns %d callbacks, want 4", len(m.Network.Callbacks))
	}
	// All four callbacks belong to the same generation.
	gen := m.Network.Callbacks[0].Generation
	for i, h := range m.Network.Callbacks {
		if h.Generation != gen {
			t.Errorf("callback %d has generation %v, want %v", i, h.Generation, gen)
		}
	}
}

func TestManager_TransportRecordedBeforeConnect(t *testing.T) {
	// The dial target does not exist; NewTransport must still reach the
	// store ahead of the error callback's Disconnected.
	var mu sync.Mutex
	var renders []state.Model

	store := state.NewStore(nil, state.WithRender(func(m state.Model) {
		mu.Lock()
		renders = append(renders, m)
		mu.Unlock()
	}))
	if err := store.Start(context.Background()); err != nil {
		t.Fatalf("store start failed: %v", err)
	}
	defer store.Stop(context.Background())

	mgr := NewManager(testManagerConfig("ws://127.0.0.1:1/ws/"), store, nil)

	tr := mgr.Open(context.Background())
	defer tr.Close()

	// Wait for the Disconnected render so the whole sequence is recorded.
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		if len(renders) == 0 {
			return false
		}
		last := renders[len(renders)-1]
		return last.Network.Transport == nil && len(last.Network.Callbacks) == 0
	}, "error teardown")

	mu.Lock()
	defer mu.Unlock()
	first := renders[0]
	if first.Network.Transport == nil {
		t.Error("first render has no transport: NewTransport did not precede the callbacks")
	}
	if first.Network.Connected {
		t.Error("first render already connected")
	}
}

func TestManager_MessageDecodedAndDispatched(t *testing.T) {
	resp := protocol.ResponseFrame{
		ID:         uuid.New(),
		ServerTsMs: 1705320000456,
		Sender:     "alice",
		Body:       "hello",
	}

	frame, err := protocol.EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, frame)
		conn.ReadMessage()
	})
	defer server.Close()

	store := startStore(t)
	mgr := NewManager(testManagerConfig(wsURL(server)), store, nil)

	tr := mgr.Open(context.Background())
	defer tr.Close()

	waitFor(t, func() bool { return store.Model().RecvCount == 1 }, "message dispatched")

	m := store.Model()
	if len(m.History) != 1 || m.History[0] != resp {
		t.Errorf("History = %+v, want [%+v]", m.History, resp)
	}
}

func TestManager_MalformedMessageDropped(t *testing.T) {
	fence, err := protocol.EncodeResponse(protocol.ResponseFrame{
		ID:     uuid.New(),
		Sender: "alice",
		Body:   "fence",
	})
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Garbage binary frame, then a valid one as a fence.
		conn.WriteMessage(websocket.BinaryMessage, []byte{0xDE, 0xAD, 0xBE, 0xEF})
		conn.WriteMessage(websocket.BinaryMessage, fence)
		conn.ReadMessage()
	})
	defer server.Close()

	store := startStore(t)
	mgr := NewManager(testManagerConfig(wsURL(server)), store, nil)

	tr := mgr.Open(context.Background())
	defer tr.Close()

	waitFor(t, func() bool { return store.Model().RecvCount == 1 }, "fence message dispatched")

	m := store.Model()
	if !m.Network.Connected {
		t.Error("malformed message changed connection state")
	}
	if m.RecvCount != 1 {
		t.Errorf("RecvCount = %d, want 1 (garbage frame must be dropped)", m.RecvCount)
	}
}

func TestManager_TextMessageDropped(t *testing.T) {
	fence, err := protocol.EncodeResponse(protocol.ResponseFrame{
		ID:     uuid.New(),
		Sender: "alice",
		Body:   "fence",
	})
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("not a frame"))
		conn.WriteMessage(websocket.BinaryMessage, fence)
		conn.ReadMessage()
	})
	defer server.Close()

	store := startStore(t)
	mgr := NewManager(testManagerConfig(wsURL(server)), store, nil)

	tr := mgr.Open(context.Background())
	defer tr.Close()

	waitFor(t, func() bool { return store.Model().RecvCount == 1 }, "fence message dispatched")

	if got := store.Model().RecvCount; got != 1 {
		t.Errorf("RecvCount = %d, want 1 (text frame must be dropped)", got)
	}
}

func TestManager_ServerCloseTearsDown(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Close once the client has signalled it is ready.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
	})
	defer server.Close()

	store := startStore(t)
	mgr := NewManager(testManagerConfig(wsURL(server)), store, nil)

	tr := mgr.Open(context.Background())
	defer tr.Close()

	waitFor(t, func() bool { return store.Model().Network.Connected }, "connected state")

	if err := tr.Send([]byte("ready")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	waitFor(t, func() bool {
		m := store.Model()
		return !m.Network.Connected && m.Network.Transport == nil && len(m.Network.Callbacks) == 0
	}, "disconnect teardown")
}

// TestManager_SendRoundTrip drives a SendRequest through the reducer and
// verifies the server receives a decodable request frame.
func TestManager_SendRoundTrip(t *testing.T) {
	reqCh := make(chan []byte, 1)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reqCh <- data
		conn.ReadMessage()
	})
	defer server.Close()

	store := startStore(t)
	mgr := NewManager(testManagerConfig(wsURL(server)), store, nil)

	tr := mgr.Open(context.Background())
	defer tr.Close()

	waitFor(t, func() bool { return store.Model().Network.Connected }, "connected state")

	req := protocol.RequestFrame{ID: uuid.New(), SentAtMs: 42, Body: "over the wire"}
	store.Dispatch(state.SendRequest{Request: req})

	select {
	case data := <-reqCh:
		got, err := protocol.DecodeRequest(data)
		if err != nil {
			t.Fatalf("server could not decode request: %v", err)
		}
		if *got != req {
			t.Errorf("server saw %+v, want %+v", *got, req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive request frame")
	}

	waitFor(t, func() bool { return store.Model().SentCount == 1 }, "sent counter")
}

package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmerrick/chatwire/internal/metrics"
	"github.com/dmerrick/chatwire/internal/protocol"
)

// Store owns the model and serializes all mutations: events are consumed
// one at a time on a single goroutine, so reducer applications are atomic
// with respect to each other.
type Store struct {
	logger *slog.Logger

	render func(Model)
	sink   func(protocol.ResponseFrame)
	fatal  func(error)

	mu    sync.RWMutex
	model Model

	events chan Event
	done   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithRender sets the callback invoked with the new model whenever the
// reducer reports Render.
func WithRender(fn func(Model)) Option {
	return func(s *Store) { s.render = fn }
}

// WithMessageSink sets a callback invoked with every decoded server
// broadcast, after the reducer has applied it. Used by the archive.
func WithMessageSink(fn func(protocol.ResponseFrame)) Option {
	return func(s *Store) { s.sink = fn }
}

// WithFatal overrides the handler for unrecovered reducer errors
// (currently only transport send failures). The default logs and panics.
func WithFatal(fn func(error)) Option {
	return func(s *Store) { s.fatal = fn }
}

// WithBufferSize sets the event queue depth.
func WithBufferSize(n int) Option {
	return func(s *Store) { s.events = make(chan Event, n) }
}

// NewStore creates a store holding the initial model.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		logger: logger,
		model:  NewModel(),
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fatal == nil {
		s.fatal = func(err error) { panic(err) }
	}
	return s
}

// Start begins consuming dispatched events.
func (s *Store) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Debug("store started")
	return nil
}

// Stop shuts the store down. Events dispatched after Stop are dropped.
func (s *Store) Stop(ctx context.Context) error {
	close(s.done)
	if s.cancel != nil {
		s.cancel()
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		s.logger.Warn("store stop timed out")
	}
	return nil
}

// Dispatch enqueues an event for reducer processing. Blocks when the
// queue is full; events arriving after Stop are silently dropped.
func (s *Store) Dispatch(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Model returns a snapshot of the current model.
func (s *Store) Model() Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// run is the single consumer of the event queue.
func (s *Store) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			s.apply(ev)
		}
	}
}

// apply runs the reducer for one event and performs the resulting effect.
func (s *Store) apply(ev Event) {
	s.mu.RLock()
	prior := s.model
	s.mu.RUnlock()

	next, effect, err := Apply(prior, ev)
	if err != nil {
		s.logger.Error("unrecovered reducer error", "event", eventName(ev), "error", err)
		s.fatal(err)
		return
	}

	s.mu.Lock()
	s.model = next
	s.mu.Unlock()

	s.observe(ev, effect)

	if effect == Render && s.render != nil {
		s.render(next)
	}
	if msg, ok := ev.(MessageReceived); ok && s.sink != nil {
		s.sink(msg.Response)
	}
}

// observe updates connection metrics for lifecycle and send events.
func (s *Store) observe(ev Event, effect Effect) {
	switch ev.(type) {
	case Connected:
		metrics.ConnectionUp.Set(1)
	case Disconnected:
		metrics.ConnectionUp.Set(0)
	case SendRequest:
		if effect == Render {
			metrics.MessagesSent.Inc()
		}
	}
}

// eventName names an event for log output.
func eventName(ev Event) string {
	switch ev.(type) {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case NewTransport:
		return "new_transport"
	case NewCallback:
		return "new_callback"
	case SendRequest:
		return "send_request"
	case MessageReceived:
		return "message_received"
	default:
		return "unknown"
	}
}

// Package session is the client-side chat core: one realtime connection,
// the set of joined rooms, the per-room message logs and read receipts.
// All state lives in the Session and is only mutated through the
// documented operations of its components.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trekconnect/contract"
	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/errors"
	"trekconnect/transport"
)

// Session owns the realtime connection of a single client. Construct one
// per application instance and share it by reference; there is no global
// instance on purpose, so tests can run sessions side by side.
type Session struct {
	mu      sync.Mutex
	log     *slog.Logger
	tr      transport.Transport
	opts    transport.Options
	authID  domain.ParticipantID
	state   domain.ConnectionState
	closing bool
	cancel  context.CancelFunc
	// gen counts connector loops. A loop may only touch the state
	// machine while its generation is current, so a retired loop that
	// wakes from a backoff sleep cannot resurrect the session.
	gen   int
	sinks []contract.EventSink

	rooms      *Membership
	dispatcher *Dispatcher
	receipts   *Receipts
}

// New wires a session with its transport, its persistence collaborator
// and the authenticated participant identity. The identity comes from
// the auth collaborator and is trusted as-is.
func New(log *slog.Logger, tr transport.Transport, store contract.MessageStore,
	authID domain.ParticipantID, opts transport.Options) *Session {
	s := &Session{
		log:    log,
		tr:     tr,
		opts:   opts,
		authID: authID,
		state:  domain.StateDisconnected,
	}
	s.rooms = newMembership(s)
	s.dispatcher = newDispatcher(s)
	s.receipts = newReceipts(s, store)
	return s
}

func (s *Session) Rooms() *Membership { return s.rooms }

func (s *Session) Messages() *Dispatcher { return s.dispatcher }

func (s *Session) Receipts() *Receipts { return s.receipts }

// AddSink subscribes a presentation-layer sink. Sinks receive message,
// membership and connection events in delivery order, once each.
func (s *Session) AddSink(sink contract.EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// State returns the current connection state. Never blocks.
func (s *Session) State() domain.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect opens the realtime connection as participantID. Idempotent:
// when already connected or connecting it returns the current state and
// does nothing. An empty or mismatched identity fails with
// errors.ErrUnauthorized before anything touches the network.
func (s *Session) Connect(participantID domain.ParticipantID) (domain.ConnectionState, error) {
	if participantID == "" || participantID != s.authID {
		return s.State(), errors.ErrUnauthorized
	}

	s.mu.Lock()
	if s.state == domain.StateConnected || s.state == domain.StateConnecting {
		state := s.state
		s.mu.Unlock()
		return state, nil
	}
	// A previous connector loop may still be sleeping in its backoff
	// window. Retire it before installing a new one, otherwise two
	// loops would race for the state machine.
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.state = domain.StateConnecting
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.notify(event.ConnectionChanged{State: domain.StateConnecting})
	go s.run(ctx, gen)
	return domain.StateConnecting, nil
}

// Disconnect tears the connection down: pending reconnection timers are
// cancelled, every joined room receives an implicit leave signal, the
// membership set is emptied and the state becomes disconnected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == domain.StateDisconnected && s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.closing = true
	s.gen++
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	// Leaves go out while the connection may still be up; after this
	// point no join signal can be emitted anymore.
	s.rooms.teardown()

	if cancel != nil {
		cancel()
	}
	_ = s.tr.Close()

	s.mu.Lock()
	s.state = domain.StateDisconnected
	s.closing = false
	s.mu.Unlock()
	s.notify(event.ConnectionChanged{State: domain.StateDisconnected})
}

// run is the connector loop: dial, flush queued joins, read frames until
// the link drops, then retry within the configured reconnection budget.
func (s *Session) run(ctx context.Context, gen int) {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.tr.Dial(ctx, s.opts); err != nil {
			s.log.Warn("transport dial failed", "error", err)
			attempts++
			if !s.retryable(ctx, gen, attempts, err) {
				return
			}
			continue
		}

		attempts = 0
		if ctx.Err() != nil {
			return
		}
		// The gateway forgot every registration when the previous
		// socket closed, so member rooms must re-emit their joins on
		// the fresh connection.
		s.rooms.requeue()
		s.setState(gen, domain.StateConnected, "")
		s.rooms.flush(ctx)

		err := s.readLoop(ctx)
		_ = s.tr.Close()
		if ctx.Err() != nil {
			// Disconnect owns the final state transition.
			return
		}

		s.log.Warn("transport connection lost", "error", err)
		attempts++
		if !s.retryable(ctx, gen, attempts, err) {
			return
		}
	}
}

// retryable applies the reconnection budget. It reports whether the
// loop should dial again; on a final failure the state stays at error
// until an explicit Connect call.
func (s *Session) retryable(ctx context.Context, gen, attempts int, cause error) bool {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	s.setState(gen, domain.StateError, reason)

	if !s.opts.Reconnection || attempts > s.opts.ReconnectionAttempts {
		s.clearCancel(gen)
		return false
	}
	if !sleepWithContext(ctx, s.opts.ReconnectionDelay) {
		return false
	}
	s.setState(gen, domain.StateConnecting, "")
	return true
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := s.tr.ReadFrame(ctx)
		if err != nil {
			return err
		}

		switch frame.Type {
		case transport.FrameMessage:
			if frame.Message != nil {
				s.dispatcher.receive(*frame.Message)
			}
		case transport.FrameMessageRead:
			s.receipts.remoteRead(frame)
		case transport.FrameError:
			s.log.Warn("gateway reported an error", "error", frame.Error)
		default:
			s.log.Debug("ignoring unexpected frame", "type", frame.Type)
		}
	}
}

// connectedLocked reports whether signals may be emitted right now.
// Callers hold s.mu.
func (s *Session) connectedLocked() bool {
	return s.state == domain.StateConnected && !s.closing
}

// setState applies a transition on behalf of a connector loop. A stale
// generation means the loop has been retired by Connect or Disconnect
// and must not touch the state anymore.
func (s *Session) setState(gen int, state domain.ConnectionState, reason string) {
	s.mu.Lock()
	if gen != s.gen || s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()
	s.notify(event.ConnectionChanged{State: state, Reason: reason})
}

func (s *Session) clearCancel(gen int) {
	s.mu.Lock()
	if gen == s.gen {
		s.cancel = nil
	}
	s.mu.Unlock()
}

// write pushes a frame through the transport with the configured timeout.
func (s *Session) write(f transport.Frame) error {
	ctx := context.Background()
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	return s.tr.WriteFrame(ctx, f)
}

// notify delivers an event to every sink, in subscription order. Sink
// failures are logged, never propagated; a broken UI must not take the
// session down.
func (s *Session) notify(e event.DomainEvent) {
	s.mu.Lock()
	sinks := make([]contract.EventSink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Consume(context.Background(), e); err != nil {
			s.log.Warn("sink rejected event", "error", err)
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/errors"
)

// collectSink records every event it consumes, in delivery order.
type collectSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (c *collectSink) Consume(_ context.Context, e event.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectSink) all() []event.DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.DomainEvent, len(c.events))
	copy(out, c.events)
	return out
}

func connectAndJoin(t *testing.T, s *Session, rooms ...domain.RoomID) {
	t.Helper()
	_, err := s.Connect("alice")
	require.NoError(t, err)
	waitForState(t, s, domain.StateConnected)
	for _, r := range rooms {
		require.NoError(t, s.Rooms().Join(r))
	}
}

func TestDispatcher_Send_Validation(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	connectAndJoin(t, s, room)

	// A blank body never reaches the transport nor the log
	_, err = s.Messages().Send(room, "   ", "bob")
	req.ErrorIs(err, errors.ErrEmptyMessage)
	req.Empty(s.Messages().Log(room))

	// Sending into a room that is not joined fails fast
	other, err := domain.DeriveRoomID("alice", "carol")
	req.NoError(err)
	_, err = s.Messages().Send(other, "hi", "carol")
	req.ErrorIs(err, errors.ErrNotJoined)
	req.Empty(s.Messages().Log(other))
}

func TestDispatcher_Send_AppendsAndTransmits(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	connectAndJoin(t, s, room)

	msg, err := s.Messages().Send(room, "  hello bob  ", "bob")
	req.NoError(err)
	req.Equal("hello bob", msg.Body)
	req.Equal(domain.ParticipantID("alice"), msg.SenderID)
	req.NotZero(msg.SentAt)
	req.Nil(msg.ReadAt)

	log := s.Messages().Log(room)
	req.Len(log, 1)
	req.Equal(msg.ID, log[0].ID)
}

func TestDispatcher_InboundOrder_FollowsTransport(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	connectAndJoin(t, s, room)

	// M2 carries an older timestamp on purpose: the transport order wins
	m1 := domain.Message{ID: uuid.New(), RoomID: room, SenderID: "bob", RecipientID: "alice", Body: "first", SentAt: time.Now().UTC()}
	m2 := domain.Message{ID: uuid.New(), RoomID: room, SenderID: "bob", RecipientID: "alice", Body: "second", SentAt: m1.SentAt.Add(-time.Minute)}
	ft.deliver(m1)
	ft.deliver(m2)

	require.Eventually(t, func() bool {
		return len(s.Messages().Log(room)) == 2
	}, waitFor, tick)
	log := s.Messages().Log(room)
	req.Equal(m1.ID, log[0].ID)
	req.Equal(m2.ID, log[1].ID)
}

func TestDispatcher_EchoedSend_IsDeduplicated(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	connectAndJoin(t, s, room)

	sent, err := s.Messages().Send(room, "hello", "bob")
	req.NoError(err)

	// The gateway echoes the message back, then delivers a fresh one
	ft.deliver(sent)
	fresh := domain.Message{ID: uuid.New(), RoomID: room, SenderID: "bob", RecipientID: "alice", Body: "hey", SentAt: time.Now().UTC()}
	ft.deliver(fresh)

	require.Eventually(t, func() bool {
		return len(s.Messages().Log(room)) == 2
	}, waitFor, tick)
	log := s.Messages().Log(room)
	req.Equal(sent.ID, log[0].ID)
	req.Equal(fresh.ID, log[1].ID)
}

func TestDispatcher_UnjoinedRoomTraffic_IsDiscarded(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	joined, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	foreign, err := domain.DeriveRoomID("alice", "carol")
	req.NoError(err)
	connectAndJoin(t, s, joined)

	ft.deliver(domain.Message{ID: uuid.New(), RoomID: foreign, Body: "lost", SentAt: time.Now().UTC()})
	ft.deliver(domain.Message{ID: uuid.New(), RoomID: joined, Body: "kept", SentAt: time.Now().UTC()})

	require.Eventually(t, func() bool {
		return len(s.Messages().Log(joined)) == 1
	}, waitFor, tick)
	req.Empty(s.Messages().Log(foreign))
}

func TestDispatcher_SendFailure_IsObservableAndWithdrawn(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	connectAndJoin(t, s, room)

	sink := &collectSink{}
	s.AddSink(sink)
	ft.failWrites(fmt.Errorf("broken pipe"))

	_, err = s.Messages().Send(room, "hello", "bob")
	req.ErrorIs(err, errors.ErrTransport)

	// The optimistic entry was withdrawn and the failure surfaced
	req.Empty(s.Messages().Log(room))
	var failed []event.SendFailed
	for _, e := range sink.all() {
		if f, ok := e.(event.SendFailed); ok {
			failed = append(failed, f)
		}
	}
	req.Len(failed, 1)
	req.Equal("hello", failed[0].Message.Body)
}

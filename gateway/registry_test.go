package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"trekconnect/domain"
	"trekconnect/domain/event"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	participantID := domain.ParticipantID("alice")
	roomID := domain.RoomID("alice_bob")
	sink := Sink{name: "alice"}

	// Given no user is connected
	// And no room exists
	req.Empty(registry.sessions)
	req.Empty(registry.roomMembers)

	// When a participant subscribes a room
	registry.Subscribe(participantID, roomID, sink)

	// Then
	req.Len(registry.sessions, 1)
	req.Equal(sink, registry.sessions[participantID])

	req.Len(registry.roomMembers, 1)
	req.Contains(registry.roomMembers[roomID], participantID)

	req.Len(registry.SinksForRoom(roomID), 1)
	req.Contains(registry.SinksForRoom(roomID), sink)
}

func TestRegistry_Subscribe_One_Room_Multiple_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("alice_bob")
	sink1 := Sink{name: "alice"}
	sink2 := Sink{name: "bob"}

	// When participants subscribe a room
	registry.Subscribe("alice", roomID, sink1)
	registry.Subscribe("bob", roomID, sink2)

	// Then
	req.Len(registry.sessions, 2)
	req.Len(registry.roomMembers[roomID], 2)

	req.Len(registry.SinksForRoom(roomID), 2)
	req.Contains(registry.SinksForRoom(roomID), sink1)
}

func TestRegistry_Unsubscribe_Keeps_The_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := Sink{name: "alice"}

	// Given a participant sitting in two rooms
	registry.Subscribe("alice", "alice_bob", sink)
	registry.Subscribe("alice", "alice_carol", sink)

	// When the participant leaves one room
	registry.Unsubscribe("alice", "alice_bob")

	// Then the empty room is gone
	// And the connection survives for the other room
	req.Nil(registry.SinksForRoom("alice_bob"))
	req.Len(registry.SinksForRoom("alice_carol"), 1)

	resolved, ok := registry.SinkFor("alice")
	req.True(ok)
	req.Equal(sink, resolved)
}

func TestRegistry_Drop_Cleans_Every_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink1 := Sink{name: "alice"}
	sink2 := Sink{name: "bob"}

	// Given two participants sharing a room
	registry.Subscribe("alice", "alice_bob", sink1)
	registry.Subscribe("bob", "alice_bob", sink2)
	registry.Subscribe("alice", "alice_carol", sink1)

	// When one connection drops
	registry.Drop("alice")

	// Then every membership of the dropped participant is gone
	req.Len(registry.sessions, 1)
	req.Nil(registry.SinksForRoom("alice_carol"))
	req.Len(registry.SinksForRoom("alice_bob"), 1)
	req.Contains(registry.SinksForRoom("alice_bob"), sink2)

	_, ok := registry.SinkFor("alice")
	req.False(ok)
}

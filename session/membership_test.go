package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trekconnect/domain"
	"trekconnect/transport"
)

func TestMembership_Join_Idempotent(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	_, err := s.Connect("alice")
	req.NoError(err)
	waitForState(t, s, domain.StateConnected)

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)

	// When joining the same room twice
	req.NoError(s.Rooms().Join(room))
	req.NoError(s.Rooms().Join(room))

	// Then exactly one join signal went out and the set holds one entry
	req.Len(ft.sentOfType(transport.FrameJoinRoom), 1)
	req.Equal([]domain.RoomID{room}, s.Rooms().Joined())
}

func TestMembership_LeaveThenJoin_SignalsInOrder(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	_, err := s.Connect("alice")
	req.NoError(err)
	waitForState(t, s, domain.StateConnected)

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)

	req.NoError(s.Rooms().Join(room))
	req.NoError(s.Rooms().Leave(room))
	req.NoError(s.Rooms().Join(room))

	frames := ft.sent()
	req.Len(frames, 3)
	req.Equal(transport.FrameJoinRoom, frames[0].Type)
	req.Equal(transport.FrameLeaveRoom, frames[1].Type)
	req.Equal(transport.FrameJoinRoom, frames[2].Type)
}

func TestMembership_Leave_NotAMember_IsNoop(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	_, err := s.Connect("alice")
	req.NoError(err)
	waitForState(t, s, domain.StateConnected)

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)

	req.NoError(s.Rooms().Leave(room))
	req.Empty(ft.sent())
}

func TestMembership_QueuedJoins_FlushInRequestOrder(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	r1, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	r2, err := domain.DeriveRoomID("alice", "carol")
	req.NoError(err)

	// Given joins requested while disconnected, including a duplicate
	req.NoError(s.Rooms().Join(r1))
	req.NoError(s.Rooms().Join(r2))
	req.NoError(s.Rooms().Join(r1))
	req.Empty(ft.sent())

	// When the connection comes up
	_, err = s.Connect("alice")
	req.NoError(err)
	waitForState(t, s, domain.StateConnected)

	// Then the queue flushes in request order, one signal per room
	require.Eventually(t, func() bool {
		return len(ft.sentOfType(transport.FrameJoinRoom)) == 2
	}, waitFor, tick)
	joins := ft.sentOfType(transport.FrameJoinRoom)
	req.Equal(r1, joins[0].RoomID)
	req.Equal(r2, joins[1].RoomID)
	req.Equal([]domain.RoomID{r1, r2}, s.Rooms().Joined())
}

func TestMembership_LeaveQueuedRoom_CancelsTheJoin(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)

	// Given a join queued while disconnected, then taken back
	req.NoError(s.Rooms().Join(room))
	req.NoError(s.Rooms().Leave(room))

	_, err = s.Connect("alice")
	req.NoError(err)
	waitForState(t, s, domain.StateConnected)

	// Then no signal was ever emitted for the room
	req.Empty(ft.sentOfType(transport.FrameJoinRoom))
	req.Empty(ft.sentOfType(transport.FrameLeaveRoom))
}

func TestMembership_RejoinsMemberRoomsAfterReconnect(t *testing.T) {
	req := require.New(t)
	ft := newFakeTransport()
	s := newTestSession(ft, nil)
	defer s.Disconnect()

	_, err := s.Connect("alice")
	req.NoError(err)
	waitForState(t, s, domain.StateConnected)

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	req.NoError(s.Rooms().Join(room))
	req.Len(ft.sentOfType(transport.FrameJoinRoom), 1)

	// When the link drops and the session reconnects on its own
	req.NoError(ft.Close())
	require.Eventually(t, func() bool {
		return ft.dialCount() == 2 && s.State() == domain.StateConnected
	}, waitFor, tick)

	// Then the member room was re-signalled on the new connection;
	// the other side forgot every registration when the socket closed
	require.Eventually(t, func() bool {
		return len(ft.sentOfType(transport.FrameJoinRoom)) == 2
	}, waitFor, tick)
	req.Equal([]domain.RoomID{room}, s.Rooms().Joined())
}

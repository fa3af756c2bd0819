package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trekconnect/errors"
)

func TestDeriveRoomID_IsCommutative(t *testing.T) {
	req := require.New(t)

	pairs := [][2]ParticipantID{
		{"alice", "bob"},
		{"bob", "alice"},
		{"u-42", "u-7"},
		{"Zoe", "anna"},
	}
	for _, pair := range pairs {
		ab, err := DeriveRoomID(pair[0], pair[1])
		req.NoError(err)
		ba, err := DeriveRoomID(pair[1], pair[0])
		req.NoError(err)
		req.Equal(ab, ba)
	}
}

func TestDeriveRoomID_RejectsDegeneratePairs(t *testing.T) {
	req := require.New(t)

	_, err := DeriveRoomID("alice", "alice")
	req.ErrorIs(err, errors.ErrInvalidParticipants)

	_, err = DeriveRoomID("", "bob")
	req.ErrorIs(err, errors.ErrInvalidParticipants)

	_, err = DeriveRoomID("alice", "")
	req.ErrorIs(err, errors.ErrInvalidParticipants)
}

func TestRoomParticipants_RoundTrips(t *testing.T) {
	req := require.New(t)

	room, err := DeriveRoomID("bob", "alice")
	req.NoError(err)

	a, b, err := RoomParticipants(room)
	req.NoError(err)
	req.Equal(ParticipantID("alice"), a)
	req.Equal(ParticipantID("bob"), b)

	req.True(Belongs(room, "alice"))
	req.True(Belongs(room, "bob"))
	req.False(Belongs(room, "carol"))
}

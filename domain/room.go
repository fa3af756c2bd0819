package domain

import (
	"strings"

	"trekconnect/errors"
)

// RoomID is the canonical identifier of a two-participant room.
// It is always derived from the pair, never persisted on its own.
type RoomID string

// roomSeparator joins the two sorted participant identifiers.
const roomSeparator = "_"

// DeriveRoomID computes the canonical room identifier for a pair of
// participants. The function is pure: same pair, either order, same result.
// A self-room (a == b) or an empty identifier fails with
// errors.ErrInvalidParticipants.
func DeriveRoomID(a, b ParticipantID) (RoomID, error) {
	if a == "" || b == "" || a == b {
		return "", errors.ErrInvalidParticipants
	}
	if b < a {
		a, b = b, a
	}
	return RoomID(string(a) + roomSeparator + string(b)), nil
}

// RoomParticipants splits a room identifier back into its two participants.
// The gateway uses it to verify that a joining client belongs to the room.
func RoomParticipants(roomID RoomID) (ParticipantID, ParticipantID, error) {
	parts := strings.SplitN(string(roomID), roomSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] == parts[1] {
		return "", "", errors.ErrInvalidParticipants
	}
	return ParticipantID(parts[0]), ParticipantID(parts[1]), nil
}

// Belongs reports whether the participant is one of the two members
// encoded in the room identifier.
func Belongs(roomID RoomID, p ParticipantID) bool {
	a, b, err := RoomParticipants(roomID)
	if err != nil {
		return false
	}
	return p == a || p == b
}

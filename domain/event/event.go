package event

import (
	"time"

	"github.com/google/uuid"

	"trekconnect/domain"
)

// DomainEvent is anything that happened inside a room and may interest
// a sink: a connected client, the disk sink, the search sink, a UI.
type DomainEvent interface {
	Room() domain.RoomID
}

// MessagePosted is the raw form of a message entering the pipeline,
// before moderation ran.
type MessagePosted struct {
	Message domain.Message
}

func (m MessagePosted) Room() domain.RoomID {
	return m.Message.RoomID
}

// SanitizedMessage is a message whose body passed moderation. Only
// sanitized messages reach persistent sinks and other participants.
type SanitizedMessage struct {
	Message       domain.Message
	Lang          string
	CensoredWords []string
}

func (m SanitizedMessage) Room() domain.RoomID {
	return m.Message.RoomID
}

// MessageDelivered is the client-side counterpart: a message entered a
// local room log, either by a successful send or by inbound delivery.
// Sinks receive it exactly once per message, in delivery order.
type MessageDelivered struct {
	Message domain.Message
}

func (m MessageDelivered) Room() domain.RoomID {
	return m.Message.RoomID
}

// MessageRead signals that the recipient observed a message.
type MessageRead struct {
	RoomID    domain.RoomID
	MessageID uuid.UUID
	ReadAt    time.Time
}

func (m MessageRead) Room() domain.RoomID {
	return m.RoomID
}

// ConnectionChanged reports a session state transition to local sinks.
// It never crosses the wire; Reason is empty outside of error states.
type ConnectionChanged struct {
	State  domain.ConnectionState
	Reason string
}

func (c ConnectionChanged) Room() domain.RoomID {
	return ""
}

// RoomJoined and RoomLeft trace membership signals actually emitted on
// the transport, which makes redundant-signal bugs visible in tests.
type RoomJoined struct {
	RoomID domain.RoomID
}

func (r RoomJoined) Room() domain.RoomID {
	return r.RoomID
}

type RoomLeft struct {
	RoomID domain.RoomID
}

func (r RoomLeft) Room() domain.RoomID {
	return r.RoomID
}

// SendFailed surfaces a transport-level send failure so the presentation
// layer can offer a retry. The failed message never stays in the log.
type SendFailed struct {
	Message domain.Message
	Err     string
}

func (s SendFailed) Room() domain.RoomID {
	return s.Message.RoomID
}

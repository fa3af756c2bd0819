package transport

import (
	"time"

	"trekconnect/domain"
)

type FrameType string

// Frame types produced by clients.
const (
	FrameJoinRoom    FrameType = "join-room"
	FrameLeaveRoom   FrameType = "leave-room"
	FrameSendMessage FrameType = "send-message"
	FrameMarkRead    FrameType = "mark-read"
)

// Frame types consumed by clients.
const (
	FrameMessage     FrameType = "message"
	FrameMessageRead FrameType = "message-read"
	FrameError       FrameType = "error"
)

// Frame is the single wire envelope. Fields are populated depending on
// Type; everything else stays at its zero value and is omitted on the
// wire.
type Frame struct {
	Type      FrameType       `json:"type"`
	RoomID    domain.RoomID   `json:"room_id,omitempty"`
	Message   *domain.Message `json:"message,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func JoinFrame(roomID domain.RoomID) Frame {
	return Frame{Type: FrameJoinRoom, RoomID: roomID}
}

func LeaveFrame(roomID domain.RoomID) Frame {
	return Frame{Type: FrameLeaveRoom, RoomID: roomID}
}

func SendFrame(msg domain.Message) Frame {
	return Frame{Type: FrameSendMessage, RoomID: msg.RoomID, Message: &msg}
}

func MarkReadFrame(roomID domain.RoomID, messageID string, at time.Time) Frame {
	return Frame{Type: FrameMarkRead, RoomID: roomID, MessageID: messageID, ReadAt: &at}
}

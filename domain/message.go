// Package domain contains core concepts of the TrekConnect chat system.
// This file defines Message values and related rules.
// A message is created once, read at most once, and never deleted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single chat message exchanged inside a room.
// ReadAt stays nil until the recipient marks the message as read;
// once set it is never updated again.
type Message struct {
	ID          uuid.UUID      `json:"id"`
	RoomID      RoomID         `json:"room_id"`
	SenderID    ParticipantID  `json:"sender_id"`
	RecipientID ParticipantID  `json:"recipient_id"`
	Body        string         `json:"body"`
	SentAt      time.Time      `json:"sent_at"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
}

package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trekconnect/contract"
	"trekconnect/domain/event"
	"trekconnect/errors"
	"trekconnect/transport"
)

// Receipts marks messages as read and propagates the receipt to the
// backing store and, when connected, to the other participant.
type Receipts struct {
	s     *Session
	store contract.MessageStore
}

func newReceipts(s *Session, store contract.MessageStore) *Receipts {
	return &Receipts{s: s, store: store}
}

// MarkRead stamps ReadAt on a message previously observed by the
// dispatcher for a joined room. Unknown ids fail with
// errors.ErrUnknownMessage. The call is idempotent: marking an
// already-read message succeeds and keeps the original ReadAt.
func (r *Receipts) MarkRead(messageID uuid.UUID) error {
	now := time.Now().UTC()

	r.s.mu.Lock()
	ref, known := r.s.dispatcher.seen[messageID]
	if !known {
		r.s.mu.Unlock()
		return errors.ErrUnknownMessage
	}
	if _, member := r.s.rooms.members[ref.roomID]; !member {
		r.s.mu.Unlock()
		return errors.ErrUnknownMessage
	}
	msg, _, fresh := r.s.dispatcher.markReadLocked(messageID, now)
	connected := r.s.connectedLocked()
	r.s.mu.Unlock()

	if !fresh {
		return nil
	}

	if r.store != nil {
		if _, err := r.store.MarkMessageAsRead(context.Background(), messageID); err != nil {
			// Local state already moved on; persistence catches up on the
			// next history fetch.
			r.s.log.Warn("read receipt not persisted", "message", messageID, "error", err)
		}
	}

	if connected {
		frame := transport.MarkReadFrame(msg.RoomID, messageID.String(), *msg.ReadAt)
		if err := r.s.write(frame); err != nil {
			r.s.log.Warn("read receipt not signalled", "message", messageID, "error", err)
		}
	}

	r.s.notify(event.MessageRead{RoomID: msg.RoomID, MessageID: messageID, ReadAt: *msg.ReadAt})
	return nil
}

// remoteRead applies a receipt that the other participant produced.
func (r *Receipts) remoteRead(f transport.Frame) {
	messageID, err := uuid.Parse(f.MessageID)
	if err != nil {
		r.s.log.Debug("malformed read receipt", "id", f.MessageID)
		return
	}
	at := time.Now().UTC()
	if f.ReadAt != nil {
		at = *f.ReadAt
	}

	r.s.mu.Lock()
	msg, known, fresh := r.s.dispatcher.markReadLocked(messageID, at)
	r.s.mu.Unlock()

	if !known || !fresh {
		return
	}
	r.s.notify(event.MessageRead{RoomID: msg.RoomID, MessageID: messageID, ReadAt: *msg.ReadAt})
}

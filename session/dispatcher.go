package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/errors"
	"trekconnect/transport"
)

// messageRef locates an observed message inside the per-room logs.
type messageRef struct {
	roomID domain.RoomID
	idx    int
}

// Dispatcher sends and receives messages for joined rooms. It keeps one
// append-only log per room in transport delivery order; the transport is
// the sole ordering authority and the dispatcher never reorders by
// timestamp.
type Dispatcher struct {
	s    *Session
	logs map[domain.RoomID][]domain.Message
	seen map[uuid.UUID]messageRef
}

func newDispatcher(s *Session) *Dispatcher {
	return &Dispatcher{
		s:    s,
		logs: make(map[domain.RoomID][]domain.Message),
		seen: make(map[uuid.UUID]messageRef),
	}
}

// Send validates, builds and transmits a message. The message is
// appended to the local log before the gateway acknowledges it; a
// transport failure withdraws the optimistic entry and surfaces a
// SendFailed event, so nothing disappears silently and a retry can
// never duplicate the log.
func (d *Dispatcher) Send(roomID domain.RoomID, body string, recipientID domain.ParticipantID) (domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	if !d.s.rooms.Contains(roomID) {
		return domain.Message{}, errors.ErrNotJoined
	}

	msg := domain.Message{
		ID:          uuid.New(),
		RoomID:      roomID,
		SenderID:    d.s.authID,
		RecipientID: recipientID,
		Body:        body,
		SentAt:      time.Now().UTC(),
	}

	d.s.mu.Lock()
	d.appendLocked(msg)
	d.s.mu.Unlock()

	if err := d.s.write(transport.SendFrame(msg)); err != nil {
		d.s.mu.Lock()
		d.withdrawLocked(msg.ID)
		d.s.mu.Unlock()
		d.s.notify(event.SendFailed{Message: msg, Err: err.Error()})
		return domain.Message{}, errors.ErrTransport
	}

	d.s.notify(event.MessageDelivered{Message: msg})
	return msg, nil
}

// Log returns a copy of the room log, in delivery order.
func (d *Dispatcher) Log(roomID domain.RoomID) []domain.Message {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	entries := d.logs[roomID]
	out := make([]domain.Message, len(entries))
	copy(out, entries)
	return out
}

// Lookup returns an observed message by id.
func (d *Dispatcher) Lookup(messageID uuid.UUID) (domain.Message, bool) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	ref, ok := d.seen[messageID]
	if !ok {
		return domain.Message{}, false
	}
	return d.logs[ref.roomID][ref.idx], true
}

// receive handles an inbound message frame. Messages for rooms that are
// not currently joined are discarded; history backfill is the message
// store's job, not the dispatcher's. Gateway echoes of locally sent
// messages are recognized by id and dropped.
func (d *Dispatcher) receive(msg domain.Message) {
	d.s.mu.Lock()
	if _, member := d.s.rooms.members[msg.RoomID]; !member {
		d.s.mu.Unlock()
		d.s.log.Debug("discarding message for unjoined room", "room", msg.RoomID)
		return
	}
	if _, echoed := d.seen[msg.ID]; echoed {
		d.s.mu.Unlock()
		return
	}
	d.appendLocked(msg)
	d.s.mu.Unlock()

	d.s.notify(event.MessageDelivered{Message: msg})
}

func (d *Dispatcher) appendLocked(msg domain.Message) {
	d.logs[msg.RoomID] = append(d.logs[msg.RoomID], msg)
	d.seen[msg.ID] = messageRef{roomID: msg.RoomID, idx: len(d.logs[msg.RoomID]) - 1}
}

// withdrawLocked removes a message from its log and repairs the index
// of every later entry in the same room.
func (d *Dispatcher) withdrawLocked(messageID uuid.UUID) {
	ref, ok := d.seen[messageID]
	if !ok {
		return
	}
	delete(d.seen, messageID)

	entries := d.logs[ref.roomID]
	d.logs[ref.roomID] = append(entries[:ref.idx], entries[ref.idx+1:]...)
	for _, later := range d.logs[ref.roomID][ref.idx:] {
		d.seen[later.ID] = messageRef{roomID: ref.roomID, idx: d.seen[later.ID].idx - 1}
	}
}

// markReadLocked stamps ReadAt on an observed message, first write wins.
// Returns the stored message and whether it was freshly stamped.
func (d *Dispatcher) markReadLocked(messageID uuid.UUID, at time.Time) (domain.Message, bool, bool) {
	ref, ok := d.seen[messageID]
	if !ok {
		return domain.Message{}, false, false
	}
	stored := &d.logs[ref.roomID][ref.idx]
	if stored.ReadAt != nil {
		return *stored, true, false
	}
	stored.ReadAt = &at
	return *stored, true, true
}

package session

import (
	"context"

	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/errors"
	"trekconnect/transport"
)

// Membership tracks which rooms this client has joined. It is a true
// set: a room is present exactly when a join signal was emitted more
// recently than any leave signal for it. Joins requested while the
// session is not connected are queued and flushed, in request order,
// once the connection comes up.
type Membership struct {
	s       *Session
	members map[domain.RoomID]struct{}
	order   []domain.RoomID
	pending []domain.RoomID
}

func newMembership(s *Session) *Membership {
	return &Membership{
		s:       s,
		members: make(map[domain.RoomID]struct{}),
	}
}

// Join adds the room to the membership set, emitting exactly one join
// signal. Joining a room twice is a no-op the second time. While the
// session is disconnected the join is queued instead of failing.
func (m *Membership) Join(roomID domain.RoomID) error {
	if roomID == "" {
		return errors.ErrInvalidParticipants
	}

	m.s.mu.Lock()
	if _, ok := m.members[roomID]; ok {
		m.s.mu.Unlock()
		return nil
	}
	if !m.s.connectedLocked() {
		if !m.queuedLocked(roomID) {
			m.pending = append(m.pending, roomID)
		}
		m.s.mu.Unlock()
		return nil
	}
	m.addLocked(roomID)
	m.s.mu.Unlock()

	if err := m.s.write(transport.JoinFrame(roomID)); err != nil {
		// The signal never made it out: forget the membership and keep
		// the room queued for the next connection.
		m.s.mu.Lock()
		m.removeLocked(roomID)
		if !m.queuedLocked(roomID) {
			m.pending = append(m.pending, roomID)
		}
		m.s.mu.Unlock()
		return errors.ErrTransport
	}

	m.s.notify(event.RoomJoined{RoomID: roomID})
	return nil
}

// Leave removes the room and emits one leave signal. Leaving a room
// that is not a member is a no-op; leaving a room that is still queued
// simply unqueues it, since no join signal was ever sent.
func (m *Membership) Leave(roomID domain.RoomID) error {
	m.s.mu.Lock()
	if _, ok := m.members[roomID]; !ok {
		m.unqueueLocked(roomID)
		m.s.mu.Unlock()
		return nil
	}
	m.removeLocked(roomID)
	connected := m.s.connectedLocked()
	m.s.mu.Unlock()

	if connected {
		if err := m.s.write(transport.LeaveFrame(roomID)); err != nil {
			return errors.ErrTransport
		}
	}
	m.s.notify(event.RoomLeft{RoomID: roomID})
	return nil
}

// Contains reports current membership.
func (m *Membership) Contains(roomID domain.RoomID) bool {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.members[roomID]
	return ok
}

// Joined returns the member rooms in join order.
func (m *Membership) Joined() []domain.RoomID {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]domain.RoomID, len(m.order))
	copy(out, m.order)
	return out
}

// flush drains the queued joins in request order. Called by the
// connector loop right after a successful dial, before the read loop
// starts, so queued joins always precede inbound traffic.
func (m *Membership) flush(ctx context.Context) {
	for {
		m.s.mu.Lock()
		if len(m.pending) == 0 || !m.s.connectedLocked() {
			m.s.mu.Unlock()
			return
		}
		roomID := m.pending[0]
		m.pending = m.pending[1:]
		if _, ok := m.members[roomID]; ok {
			m.s.mu.Unlock()
			continue
		}
		m.addLocked(roomID)
		m.s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if err := m.s.write(transport.JoinFrame(roomID)); err != nil {
			m.s.log.Warn("queued join failed", "room", roomID, "error", err)
			m.s.mu.Lock()
			m.removeLocked(roomID)
			m.pending = append([]domain.RoomID{roomID}, m.pending...)
			m.s.mu.Unlock()
			return
		}
		m.s.notify(event.RoomJoined{RoomID: roomID})
	}
}

// requeue moves every member room back onto the pending queue, in join
// order, ahead of joins that were queued while disconnected. The next
// flush re-emits their join signals; a fresh connection starts with an
// empty registration on the other side.
func (m *Membership) requeue() {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if len(m.order) == 0 {
		return
	}
	pending := make([]domain.RoomID, 0, len(m.order)+len(m.pending))
	pending = append(pending, m.order...)
	for _, id := range m.pending {
		if _, ok := m.members[id]; !ok {
			pending = append(pending, id)
		}
	}
	m.pending = pending
	m.members = make(map[domain.RoomID]struct{})
	m.order = nil
}

// teardown emits an implicit leave for every member room and clears
// both the set and the queue. Only Disconnect calls it.
func (m *Membership) teardown() {
	m.s.mu.Lock()
	rooms := make([]domain.RoomID, len(m.order))
	copy(rooms, m.order)
	m.members = make(map[domain.RoomID]struct{})
	m.order = nil
	m.pending = nil
	m.s.mu.Unlock()

	for _, roomID := range rooms {
		if err := m.s.write(transport.LeaveFrame(roomID)); err != nil {
			m.s.log.Debug("implicit leave not delivered", "room", roomID, "error", err)
		}
		m.s.notify(event.RoomLeft{RoomID: roomID})
	}
}

func (m *Membership) addLocked(roomID domain.RoomID) {
	m.members[roomID] = struct{}{}
	m.order = append(m.order, roomID)
}

func (m *Membership) removeLocked(roomID domain.RoomID) {
	delete(m.members, roomID)
	for i, id := range m.order {
		if id == roomID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Membership) queuedLocked(roomID domain.RoomID) bool {
	for _, id := range m.pending {
		if id == roomID {
			return true
		}
	}
	return false
}

func (m *Membership) unqueueLocked(roomID domain.RoomID) {
	for i, id := range m.pending {
		if id == roomID {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

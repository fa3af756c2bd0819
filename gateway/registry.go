package gateway

import (
	"sync"

	"trekconnect/contract"
	"trekconnect/domain"
)

type Set map[domain.ParticipantID]struct{}

// Registry tracks which participant connections are live and which rooms
// each of them joined. A participant has at most one sink at a time, no
// matter how many rooms they sit in.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[domain.ParticipantID]contract.EventSink
	roomMembers map[domain.RoomID]Set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[domain.ParticipantID]contract.EventSink),
		roomMembers: make(map[domain.RoomID]Set),
	}
}

// SinksForRoom retrieves all active communication channels for a specific room.
// It performs a two-step lookup:
// 1. Identifies participant IDs associated with the room via roomMembers.
// 2. Resolves those IDs into actual EventSinks using the sessions map.
//
// Returns nil if the room doesn't exist or has no connected members.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for participantID := range members {
		if sink, exists := r.sessions[participantID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// SinkFor resolves the single active connection of a participant.
func (r *Registry) SinkFor(participantID domain.ParticipantID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[participantID]
	return sink, ok
}

// Subscribe registers a participant's active connection and assigns them to a specific room.
// If the room does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(participantID domain.ParticipantID, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[participantID] = sink

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][participantID] = struct{}{}
}

// Unsubscribe removes a participant from a room without dropping their
// connection. No empty sets are left in the room map to prevent memory
// leaks over time.
func (r *Registry) Unsubscribe(participantID domain.ParticipantID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoomLocked(participantID, roomID)
}

// Drop removes a participant's connection and cleans up every room
// membership they held. Called when the websocket closes.
func (r *Registry) Drop(participantID domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, participantID)

	for roomID := range r.roomMembers {
		r.removeFromRoomLocked(participantID, roomID)
	}
}

func (r *Registry) removeFromRoomLocked(participantID domain.ParticipantID, roomID domain.RoomID) {
	members, ok := r.roomMembers[roomID]
	if !ok {
		return
	}
	delete(members, participantID)

	// If no one is left in the room, remove the room entry entirely
	if len(members) == 0 {
		delete(r.roomMembers, roomID)
	}
}

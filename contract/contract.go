//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"trekconnect/domain"
	"trekconnect/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual
// naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes domain events. Implementations include connected
// websocket clients, the disk sink, the search sink and session
// presentation callbacks.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks which participant connections belong to which rooms.
type IRegistry interface {
	SinksForRoom(roomID domain.RoomID) []EventSink
	SinkFor(participantID domain.ParticipantID) (EventSink, bool)
	Subscribe(participantID domain.ParticipantID, roomID domain.RoomID, sink EventSink)
	Unsubscribe(participantID domain.ParticipantID, roomID domain.RoomID)
	Drop(participantID domain.ParticipantID)
}

// MessageStore is the persistence collaborator of the client session.
// History fetches and read-receipt persistence live behind it; the
// session core never touches storage directly.
type MessageStore interface {
	MessagesForRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID uuid.UUID) (bool, error)
}

package workers

import (
	"context"
	"log/slog"

	"trekconnect/contract"
	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/repositories"
)

var _ contract.Worker = (*IntakeWorker)(nil)

// IntakeWorker drains one command shard and turns commands into
// pipeline events. Each worker owns its shard exclusively; the hub
// routes all commands of a room to the same shard, so per-room order
// is preserved no matter how many workers run.
//
// Posted messages go to the moderation stage untouched. Read receipts
// are persisted here; only a fresh receipt produces an event, so a
// receipt replayed after a reconnect fans out nothing.
type IntakeWorker struct {
	messages repositories.IMessageRepository
	commands chan domain.Command
	raw      chan event.DomainEvent
	events   chan event.DomainEvent
	log      *slog.Logger
}

func NewIntakeWorker(
	messages repositories.IMessageRepository,
	commands chan domain.Command,
	raw, events chan event.DomainEvent,
	log *slog.Logger) *IntakeWorker {
	return &IntakeWorker{
		messages: messages,
		commands: commands,
		raw:      raw,
		events:   events,
		log:      log,
	}
}

func (w *IntakeWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			switch c := cmd.(type) {
			case domain.PostMessageCommand:
				select {
				case <-ctx.Done():
					return ctx.Err()
				case w.raw <- event.MessagePosted{Message: c.Message}:
				}
			case domain.MarkReadCommand:
				evt, fresh := w.markRead(c)
				if !fresh {
					continue
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case w.events <- evt:
				}
			}
		}
	}
}

func (w *IntakeWorker) markRead(c domain.MarkReadCommand) (event.DomainEvent, bool) {
	msg, fresh, err := w.messages.MarkMessageAsRead(c.Message.ID)
	if err != nil {
		w.log.Warn("Failed to persist read receipt", "message_id", c.Message.ID, "error", err)
		return nil, false
	}
	if !fresh || msg.ReadAt == nil {
		w.log.Debug("Read receipt already recorded", "message_id", c.Message.ID)
		return nil, false
	}
	return event.MessageRead{
		RoomID:    msg.RoomID,
		MessageID: msg.ID,
		ReadAt:    *msg.ReadAt,
	}, true
}

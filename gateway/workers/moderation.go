package workers

import (
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"

	"trekconnect/contract"
	"trekconnect/domain/event"
	"trekconnect/moderation"
)

var _ contract.Worker = (*ModerationWorker)(nil)

type ModerationWorker struct {
	moderator moderation.Moderator
	raw       chan event.DomainEvent
	events    chan event.DomainEvent
	log       *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator,
	raw, events chan event.DomainEvent, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator: moderator,
		raw:       raw,
		events:    events,
		log:       log,
	}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case e, ok := <-w.raw:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			posted, ok := e.(event.MessagePosted)
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				w.log.Debug("Stopping worker")
				return ctx.Err()
			case w.events <- w.toSanitizedEvent(posted):
			}
		}
	}
}

func (w *ModerationWorker) toSanitizedEvent(evt event.MessagePosted) event.DomainEvent {
	info := whatlanggo.Detect(evt.Message.Body)
	langCode := info.Lang.Iso6391()

	sanitized, foundWords := w.moderator.Censor(evt.Message.Body)
	if len(foundWords) > 0 {
		w.log.Info("Censored message body",
			"room", evt.Message.RoomID,
			"sender", evt.Message.SenderID,
			"lang", langCode,
			"words", len(foundWords))
	}

	msg := evt.Message
	msg.Body = sanitized

	return event.SanitizedMessage{
		Message:       msg,
		Lang:          langCode,
		CensoredWords: foundWords,
	}
}

package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/moderation"
)

func TestModerationWorker_SanitizesBody(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	moderator, err := moderation.NewModerator([]string{"tribble"}, '*', log)
	req.NoError(err)

	raw := make(chan event.DomainEvent, 1)
	events := make(chan event.DomainEvent, 1)
	worker := NewModerationWorker(moderator, raw, events, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	msg := domain.Message{
		ID:          uuid.New(),
		RoomID:      "alice_bob",
		SenderID:    "alice",
		RecipientID: "bob",
		Body:        "beware the tribble invasion",
		SentAt:      time.Now().UTC(),
	}

	// When a raw message passes through moderation
	raw <- event.MessagePosted{Message: msg}

	// Then the body is censored and the metadata is attached
	select {
	case e := <-events:
		sanitized, ok := e.(event.SanitizedMessage)
		req.True(ok)
		req.Equal("beware the ******* invasion", sanitized.Message.Body)
		req.Equal([]string{"tribble"}, sanitized.CensoredWords)
		req.Equal(msg.ID, sanitized.Message.ID)
	case <-time.After(1 * time.Second):
		req.Fail("Sanitized message never arrived")
	}
}

func TestModerationWorker_CleanBodyPassesThrough(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	moderator, err := moderation.NewModerator([]string{"tribble"}, '*', log)
	req.NoError(err)

	raw := make(chan event.DomainEvent, 1)
	events := make(chan event.DomainEvent, 1)
	worker := NewModerationWorker(moderator, raw, events, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	msg := domain.Message{ID: uuid.New(), RoomID: "alice_bob", Body: "all systems nominal"}
	raw <- event.MessagePosted{Message: msg}

	select {
	case e := <-events:
		sanitized, ok := e.(event.SanitizedMessage)
		req.True(ok)
		req.Equal("all systems nominal", sanitized.Message.Body)
		req.Empty(sanitized.CensoredWords)
	case <-time.After(1 * time.Second):
		req.Fail("Message never arrived")
	}
}

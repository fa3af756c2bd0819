package sink

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/repositories"
)

func TestSearchSink_IndexesSanitizedMessages(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	index := repositories.NewSearchIndex(writer, log)
	searchSink := NewSearchSink(index, log)

	msg := domain.Message{
		ID:          uuid.New(),
		RoomID:      "alice_bob",
		SenderID:    "alice",
		RecipientID: "bob",
		Body:        "dilithium levels nominal",
		SentAt:      time.Now().UTC(),
	}

	// When a sanitized message reaches the sink
	req.NoError(searchSink.Consume(context.Background(), event.SanitizedMessage{Message: msg}))

	// Then the room search finds it
	hits, err := index.Search(context.Background(), "alice_bob", "dilithium", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(msg.ID.String(), hits[0].MessageID)

	// And receipt events are ignored
	req.NoError(searchSink.Consume(context.Background(), event.MessageRead{
		RoomID: "alice_bob", MessageID: uuid.New(), ReadAt: time.Now().UTC(),
	}))
}

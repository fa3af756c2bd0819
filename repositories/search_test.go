package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"trekconnect/domain"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchIndex(writer, slog.Default())
}

func TestSearchIndex_FindsIndexedMessage(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	msg := testMessage(room, "warp core breach in engineering", time.Now().UTC())
	req.NoError(index.Index(msg))

	hits, err := index.Search(context.Background(), room, "warp", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(msg.ID.String(), hits[0].MessageID)
	req.Equal(msg.Body, hits[0].Body)
	req.Equal("alice", hits[0].Sender)
	req.WithinDuration(msg.SentAt, hits[0].SentAt, time.Second)
}

func TestSearchIndex_Search_IsRoomScoped(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	roomAB, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	roomAC, err := domain.DeriveRoomID("alice", "carol")
	req.NoError(err)

	req.NoError(index.Index(testMessage(roomAB, "shuttle departure", time.Now().UTC())))
	req.NoError(index.Index(testMessage(roomAC, "shuttle arrival", time.Now().UTC())))

	hits, err := index.Search(context.Background(), roomAB, "shuttle", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("shuttle departure", hits[0].Body)
}

func TestSearchIndex_Search_NoMatch(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	req.NoError(index.Index(testMessage(room, "subspace chatter", time.Now().UTC())))

	hits, err := index.Search(context.Background(), room, "tribble", 10)
	req.NoError(err)
	req.Empty(hits)
}

func TestSearchIndex_Search_HonorsLimit(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	room, err := domain.DeriveRoomID("alice", "bob")
	req.NoError(err)
	for range lo.Range(5) {
		req.NoError(index.Index(domain.Message{
			ID:          uuid.New(),
			RoomID:      room,
			SenderID:    "alice",
			RecipientID: "bob",
			Body:        "status report requested",
			SentAt:      time.Now().UTC(),
		}))
	}

	hits, err := index.Search(context.Background(), room, "status", 2)
	req.NoError(err)
	req.Len(hits, 2)
}

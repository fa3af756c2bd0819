package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"

	"trekconnect/domain"
)

// SearchHit is one result of a room-scoped message search.
type SearchHit struct {
	MessageID string
	Body      string
	Sender    string
	SentAt    time.Time
	Score     float64
}

// SearchIndex maintains a Bluge full-text index over message bodies.
// Queries are always scoped to a room: search never leaks a message to
// someone outside its two participants.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index adds or replaces a message document.
func (s *SearchIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("room", string(message.RoomID)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(message.SenderID)).StoreValue()).
		AddField(bluge.NewTextField("body", message.Body).StoreValue()).
		AddField(bluge.NewDateTimeField("sent_at", message.SentAt)).
		AddField(bluge.NewStoredOnlyField("sent_at_raw", []byte(message.SentAt.UTC().Format(time.RFC3339Nano))))
	return s.writer.Update(doc.ID(), doc)
}

// Search runs a match query on message bodies within a single room and
// returns the best hits by relevance.
func (s *SearchIndex) Search(ctx context.Context, room domain.RoomID, terms string, limit int) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("closing search reader failed", "error", err)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("body")).
		AddMust(bluge.NewTermQuery(string(room)).SetField("room"))

	if limit <= 0 {
		limit = 10
	}
	request := bluge.NewTopNSearch(limit, query)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	match, err := iterator.Next()
	for err == nil && match != nil {
		hit := SearchHit{Score: match.Score}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "body":
				hit.Body = string(value)
			case "sender":
				hit.Sender = string(value)
			case "sent_at_raw":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					hit.SentAt = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

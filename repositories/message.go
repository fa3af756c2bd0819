//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"trekconnect/domain"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(room domain.RoomID, cursor *string) ([]domain.Message, *string, error)
	GetMessage(messageID uuid.UUID) (domain.Message, error)
	MarkMessageAsRead(messageID uuid.UUID) (domain.Message, bool, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored shape of a message.
type diskMessage struct {
	ID          uuid.UUID  `json:"id"`
	Room        string     `json:"room"`
	Sender      string     `json:"sender"`
	Recipient   string     `json:"recipient"`
	Body        string     `json:"body"`
	At          time.Time  `json:"at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// StoreMessage persists a message in BadgerDB.
// The primary key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
//
// A secondary index "idx:msg:{uuid}" points back at the primary key so
// read receipts can locate a message by id alone.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := primaryKey(message)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey(message.ID)), []byte(key))
	})
}

// GetMessages retrieves messages for a specific room using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted
// by time. The scan walks backwards from the cursor (newest first) and
// stops once the configured limitMessages is reached.
func (m MessageRepository) GetMessages(room domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk back.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages := make([]domain.Message, 0, len(byteMessages))
	for _, b := range byteMessages {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, nil, err
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, lo.ToPtr(lastKey), nil
}

// GetMessage resolves a single message through the secondary index.
func (m MessageRepository) GetMessage(messageID uuid.UUID) (domain.Message, error) {
	var dm diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		idxItem, err := txn.Get([]byte(indexKey(messageID)))
		if err != nil {
			return err
		}
		var primary []byte
		if err := idxItem.Value(func(v []byte) error {
			primary = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get(primary)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &dm)
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(dm), nil
}

// MarkMessageAsRead stamps ReadAt on a stored message, first write wins.
// It reports whether the message was freshly stamped; marking an
// already-read message keeps the original timestamp.
func (m MessageRepository) MarkMessageAsRead(messageID uuid.UUID) (domain.Message, bool, error) {
	var updated domain.Message
	fresh := false
	err := m.db.Update(func(txn *badger.Txn) error {
		idxItem, err := txn.Get([]byte(indexKey(messageID)))
		if err != nil {
			return err
		}
		var primary []byte
		if err := idxItem.Value(func(v []byte) error {
			primary = append([]byte(nil), v...)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get(primary)
		if err != nil {
			return err
		}
		var dm diskMessage
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &dm)
		}); err != nil {
			return err
		}

		if dm.ReadAt == nil {
			dm.ReadAt = lo.ToPtr(time.Now().UTC())
			fresh = true
			bytes, err := json.Marshal(dm)
			if err != nil {
				return err
			}
			if err := txn.Set(primary, bytes); err != nil {
				return err
			}
		}
		updated = toMessage(dm)
		return nil
	})
	if err != nil {
		return domain.Message{}, false, err
	}
	return updated, fresh, nil
}

func primaryKey(message domain.Message) string {
	return fmt.Sprintf("msg:%s:%019d:%s",
		message.RoomID,
		message.SentAt.UnixNano(),
		message.ID,
	)
}

func indexKey(messageID uuid.UUID) string {
	return "idx:msg:" + messageID.String()
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID,
		Room:      string(message.RoomID),
		Sender:    string(message.SenderID),
		Recipient: string(message.RecipientID),
		Body:      message.Body,
		At:        message.SentAt,
		ReadAt:    message.ReadAt,
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:          dm.ID,
		RoomID:      domain.RoomID(dm.Room),
		SenderID:    domain.ParticipantID(dm.Sender),
		RecipientID: domain.ParticipantID(dm.Recipient),
		Body:        dm.Body,
		SentAt:      dm.At.UTC(),
		ReadAt:      dm.ReadAt,
	}
}

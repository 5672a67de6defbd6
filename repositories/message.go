package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rendezvous/domain"
	"rendezvous/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository returns a Badger message store. When limitMessages is
// set, history only returns the most recent messages of a pair.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	Sender   string `cbor:"1,keyasint"`
	Receiver string `cbor:"2,keyasint"`
	Body     string `cbor:"3,keyasint"`
	SentAt   int64  `cbor:"4,keyasint"`
	Edited   bool   `cbor:"5,keyasint"`
}

// messageKey is formatted as "msg:{room}:{unix_nano_padded}:{sender}".
// Room segments are escaped, so a room prefix never matches another pair.
// The 19-digit padding keeps lexicographical order chronological, and the
// sender disambiguates two messages sent at the same instant.
func messageKey(room domain.RoomKey, sentAt time.Time, sender string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", room, sentAt.UnixNano(), sender))
}

func messagePrefix(room domain.RoomKey) []byte {
	return []byte(fmt.Sprintf("msg:%s:", room))
}

func (m *MessageRepository) SendMessage(_ context.Context, message domain.Message) error {
	bytes, err := encode(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.RoomKey(), message.SentAt.Time, message.Sender), bytes)
	})
}

// GetMessagesBetweenUsers returns the conversation of the pair in chronological order.
func (m *MessageRepository) GetMessagesBetweenUsers(_ context.Context, user1, user2 string) ([]domain.Message, error) {
	prefix := messagePrefix(domain.NewRoomKey(user1, user2))
	var messages []domain.Message

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		// With a limit we walk backwards from the newest message
		options.Reverse = m.limitMessages != nil
		it := txn.NewIterator(options)
		defer it.Close()

		seek := prefix
		if options.Reverse {
			seek = append(append([]byte{}, prefix...), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			var dm diskMessage
			if err := decodeItem(it.Item(), &dm); err != nil {
				return err
			}
			messages = append(messages, toMessage(dm))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m.limitMessages != nil {
		messages = lo.Reverse(messages)
	}
	return messages, nil
}

func (m *MessageRepository) EditMessage(_ context.Context, room domain.RoomKey, sender string, sentAt time.Time, newContent string) (domain.Message, error) {
	var edited domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		key := messageKey(room, sentAt, sender)
		item, err := txn.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrMessageNotFound
			}
			return err
		}
		var dm diskMessage
		if err := decodeItem(item, &dm); err != nil {
			return err
		}
		dm.Body = newContent
		dm.Edited = true
		bytes, err := encode(dm)
		if err != nil {
			return err
		}
		edited = toMessage(dm)
		return txn.Set(key, bytes)
	})
	return edited, err
}

func (m *MessageRepository) DeleteMessage(_ context.Context, room domain.RoomKey, sender string, sentAt time.Time) error {
	return m.db.Update(func(txn *badger.Txn) error {
		key := messageKey(room, sentAt, sender)
		if _, err := txn.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrMessageNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		Sender:   message.Sender,
		Receiver: message.Receiver,
		Body:     message.Body,
		SentAt:   message.SentAt.UnixNano(),
		Edited:   message.Edited,
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		Sender:   dm.Sender,
		Receiver: dm.Receiver,
		Body:     dm.Body,
		SentAt:   domain.NewTimestamp(time.Unix(0, dm.SentAt)),
		Edited:   dm.Edited,
	}
}

package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rendezvous/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type NotificationRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, log: log, now: time.Now}
}

type diskNotification struct {
	ID        string `cbor:"1,keyasint"`
	Username  string `cbor:"2,keyasint"`
	Type      string `cbor:"3,keyasint"`
	Message   string `cbor:"4,keyasint"`
	CreatedAt int64  `cbor:"5,keyasint"`
	Read      bool   `cbor:"6,keyasint"`
}

func notificationPrefix(username string) []byte {
	return []byte(fmt.Sprintf("notif:%s:", domain.EscapeKeySegment(username)))
}

// AddNotification stores a record under "notif:{escaped_username}:{unix_nano_padded}:{uuid}".
func (n *NotificationRepository) AddNotification(_ context.Context, username string, kind domain.NotificationType, message string) error {
	record := diskNotification{
		ID:        uuid.NewString(),
		Username:  username,
		Type:      string(kind),
		Message:   message,
		CreatedAt: n.now().UnixNano(),
	}
	bytes, err := encode(record)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%019d:%s", notificationPrefix(username), record.CreatedAt, record.ID)
	return n.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// ListNotifications returns up to limit records of username, most recent first.
// A limit of zero or less returns them all.
func (n *NotificationRepository) ListNotifications(_ context.Context, username string, limit int) ([]domain.Notification, error) {
	prefix := notificationPrefix(username)
	var res []domain.Notification
	err := n.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(append(append([]byte{}, prefix...), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(res) == limit {
				break
			}
			var record diskNotification
			if err := decodeItem(it.Item(), &record); err != nil {
				return err
			}
			notification, err := toNotification(record)
			if err != nil {
				return err
			}
			res = append(res, notification)
		}
		return nil
	})
	return res, err
}

func toNotification(record diskNotification) (domain.Notification, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Notification{}, err
	}
	return domain.Notification{
		ID:        id,
		Username:  record.Username,
		Type:      domain.NotificationType(record.Type),
		Message:   record.Message,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
		Read:      record.Read,
	}, nil
}

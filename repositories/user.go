package repositories

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// UserRepository keeps the mobile push token of each user.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func pushTokenKey(username string) []byte {
	return []byte("pushtoken:" + username)
}

// SetPushToken replaces the token of username. An empty token removes it.
func (u *UserRepository) SetPushToken(_ context.Context, username, token string) error {
	token = strings.TrimSpace(token)
	return u.db.Update(func(txn *badger.Txn) error {
		if token == "" {
			return txn.Delete(pushTokenKey(username))
		}
		return txn.Set(pushTokenKey(username), []byte(token))
	})
}

func (u *UserRepository) GetPushToken(_ context.Context, username string) (string, bool, error) {
	var token string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pushTokenKey(username))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		token = string(value)
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

package repositories

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// timeIndex stores records under "{kind}:{unix_nano_padded}:{id}" so a due
// window is a single forward range scan. "{kind}-id:{id}" points to the
// current primary key, letting a reschedule drop the stale entry.
type timeIndex struct {
	db   *badger.DB
	kind string
}

func (t timeIndex) primaryKey(id string, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s:%019d:%s", t.kind, at.UnixNano(), id))
}

func (t timeIndex) idKey(id string) []byte {
	return []byte(fmt.Sprintf("%s-id:%s", t.kind, id))
}

func (t timeIndex) prefix() []byte {
	return []byte(t.kind + ":")
}

func (t timeIndex) put(id string, at time.Time, value []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		if err := t.removeTxn(txn, id); err != nil {
			return err
		}
		key := t.primaryKey(id, at)
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(t.idKey(id), key)
	})
}

func (t timeIndex) remove(id string) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return t.removeTxn(txn, id)
	})
}

func (t timeIndex) removeTxn(txn *badger.Txn, id string) error {
	item, err := txn.Get(t.idKey(id))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	previous, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	if err := txn.Delete(previous); err != nil {
		return err
	}
	return txn.Delete(t.idKey(id))
}

// scan calls fn for every record scheduled in [from, to].
func (t timeIndex) scan(from, to time.Time, fn func(item *badger.Item) error) error {
	prefix := t.prefix()
	upper := []byte(fmt.Sprintf("%s:%019d:\xff", t.kind, to.UnixNano()))
	return t.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek([]byte(fmt.Sprintf("%s:%019d:", t.kind, from.UnixNano()))); it.ValidForPrefix(prefix); it.Next() {
			if string(it.Item().Key()) > string(upper) {
				break
			}
			if err := fn(it.Item()); err != nil {
				return err
			}
		}
		return nil
	})
}

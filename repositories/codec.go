package repositories

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// Records are stored as CBOR with integer keys so field renames don't break
// existing databases.

func encode(v any) ([]byte, error) {
	bytes, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return bytes, nil
}

func decodeItem(item *badger.Item, v any) error {
	return item.Value(func(val []byte) error {
		if err := cbor.Unmarshal(val, v); err != nil {
			return fmt.Errorf("decoding record %q: %w", item.Key(), err)
		}
		return nil
	})
}

package repositories

import (
	"context"
	"time"

	"rendezvous/domain"

	"github.com/dgraph-io/badger/v4"
)

// NoteRepository is the Badger read model of personal notes with a reminder.
type NoteRepository struct {
	index timeIndex
}

func NewNoteRepository(db *badger.DB) *NoteRepository {
	return &NoteRepository{index: timeIndex{db: db, kind: "note"}}
}

type diskNote struct {
	ID      string `cbor:"1,keyasint"`
	Owner   string `cbor:"2,keyasint"`
	DueAt   int64  `cbor:"3,keyasint"`
	Comment string `cbor:"4,keyasint"`
}

func (n *NoteRepository) SaveNote(_ context.Context, note domain.Note) error {
	bytes, err := encode(diskNote{
		ID:      note.ID,
		Owner:   note.Owner,
		DueAt:   note.DueAt.UnixNano(),
		Comment: note.Comment,
	})
	if err != nil {
		return err
	}
	return n.index.put(note.ID, note.DueAt, bytes)
}

func (n *NoteRepository) DeleteNote(_ context.Context, id string) error {
	return n.index.remove(id)
}

// DueNotes returns notes due in [from, to], earliest first.
func (n *NoteRepository) DueNotes(_ context.Context, from, to time.Time) ([]domain.Note, error) {
	var res []domain.Note
	err := n.index.scan(from, to, func(item *badger.Item) error {
		var dn diskNote
		if err := decodeItem(item, &dn); err != nil {
			return err
		}
		res = append(res, domain.Note{
			ID:      dn.ID,
			Owner:   dn.Owner,
			DueAt:   time.Unix(0, dn.DueAt),
			Comment: dn.Comment,
		})
		return nil
	})
	return res, err
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"rendezvous/domain"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Notes keep their reminder as a local date plus a local time.
const dueNotesQuery = `
	SELECT id, owner, (due_date + due_time) AS due_at, comment
	FROM notes
	WHERE (due_date + due_time) BETWEEN $1::timestamp AND $2::timestamp
	ORDER BY due_at`

func (n *NoteRepository) DueNotes(ctx context.Context, from, to time.Time) ([]domain.Note, error) {
	rows, err := n.db.QueryContext(ctx, dueNotesQuery, localTimestamp(from), localTimestamp(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Note
	for rows.Next() {
		var note domain.Note
		var dueAt time.Time
		if err := rows.Scan(&note.ID, &note.Owner, &dueAt, &note.Comment); err != nil {
			return nil, err
		}
		note.DueAt = asLocal(dueAt)
		res = append(res, note)
	}
	return res, rows.Err()
}

func (n *NoteRepository) SaveNote(ctx context.Context, note domain.Note) error {
	local := note.DueAt.In(time.Local)
	_, err := n.db.ExecContext(ctx, `
		INSERT INTO notes (id, owner, due_date, due_time, comment) VALUES ($1, $2, $3::date, $4::time, $5)
		ON CONFLICT (id) DO UPDATE SET owner = EXCLUDED.owner, due_date = EXCLUDED.due_date,
			due_time = EXCLUDED.due_time, comment = EXCLUDED.comment`,
		note.ID, note.Owner, local.Format("2006-01-02"), local.Format("15:04:05"), note.Comment)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"rendezvous/domain"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const upcomingActivitiesQuery = `
	SELECT a.id, a.name, a.starts_at, a.creator,
		ARRAY(SELECT p.username FROM activity_participants p WHERE p.activity_id = a.id ORDER BY p.username)
	FROM activities a
	WHERE a.starts_at BETWEEN $1 AND $2
	ORDER BY a.starts_at`

func (a *ActivityRepository) UpcomingActivities(ctx context.Context, from, to time.Time) ([]domain.Activity, error) {
	rows, err := a.db.QueryContext(ctx, upcomingActivitiesQuery, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Activity
	for rows.Next() {
		var activity domain.Activity
		var participants pq.StringArray
		if err := rows.Scan(&activity.ID, &activity.Name, &activity.StartsAt, &activity.Creator, &participants); err != nil {
			return nil, err
		}
		activity.Participants = participants
		res = append(res, activity)
	}
	return res, rows.Err()
}

// SaveActivity upserts an activity and replaces its participants.
func (a *ActivityRepository) SaveActivity(ctx context.Context, activity domain.Activity) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO activities (id, name, starts_at, creator) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, starts_at = EXCLUDED.starts_at, creator = EXCLUDED.creator`,
		activity.ID, activity.Name, activity.StartsAt, activity.Creator); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM activity_participants WHERE activity_id = $1`, activity.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO activity_participants (activity_id, username)
		SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`,
		activity.ID, pq.Array(activity.Participants)); err != nil {
		return err
	}
	return tx.Commit()
}

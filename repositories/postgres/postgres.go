// Package postgres reads reminder targets from the relational store owned by
// the planning backend.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return db, nil
}

// Migrate creates the tables read by this package when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			creator TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_starts_at ON activities(starts_at)`,
		`CREATE TABLE IF NOT EXISTS activity_participants (
			activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			username TEXT NOT NULL,
			PRIMARY KEY (activity_id, username)
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			due_date DATE NOT NULL,
			due_time TIME NOT NULL,
			comment TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}
	}
	return nil
}

// localTimestamp renders t as a zone-less timestamp in server local time,
// the way dates and times are stored for notes.
func localTimestamp(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02 15:04:05.999999")
}

// asLocal reinterprets a zone-less timestamp read back by the driver as local time.
func asLocal(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}

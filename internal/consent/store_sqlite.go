package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"punchgate/pkg/platform/sentinel"
)

// SQLiteStore is the durable, device-local consent store. One row per device
// key; AcceptedAt round-trips as RFC 3339 text so the record stays readable
// outside the process.
type SQLiteStore struct {
	db *sql.DB
}

const createConsentTable = `
CREATE TABLE IF NOT EXISTS consent (
	device_key     TEXT PRIMARY KEY,
	camera         INTEGER NOT NULL,
	location       INTEGER NOT NULL,
	accepted_at    TEXT NOT NULL,
	retention_days INTEGER NOT NULL
)`

// NewSQLiteStore opens (or creates) the consent database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("consent: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(createConsentTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("consent: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Read(ctx context.Context, deviceKey string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT camera, location, accepted_at, retention_days FROM consent WHERE device_key = ?`,
		deviceKey,
	)

	var (
		camera, location int
		acceptedAt       string
		retentionDays    int
	)
	if err := row.Scan(&camera, &location, &acceptedAt, &retentionDays); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("consent: read: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, acceptedAt)
	if err != nil {
		return nil, fmt.Errorf("consent: parse accepted_at %q: %w", acceptedAt, err)
	}

	return &Record{
		Camera:        camera != 0,
		Location:      location != 0,
		AcceptedAt:    ts,
		RetentionDays: retentionDays,
	}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, deviceKey string, record Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO consent (device_key, camera, location, accepted_at, retention_days)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (device_key) DO UPDATE SET
			camera = excluded.camera,
			location = excluded.location,
			accepted_at = excluded.accepted_at,
			retention_days = excluded.retention_days`,
		deviceKey,
		boolToInt(record.Camera),
		boolToInt(record.Location),
		record.AcceptedAt.UTC().Format(time.RFC3339Nano),
		record.RetentionDays,
	)
	if err != nil {
		return fmt.Errorf("consent: save: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

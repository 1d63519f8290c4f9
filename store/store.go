// Package store keeps an activity log in a local SQLite database and
// derives training-load trends from it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrDuplicate is returned when an inserted recording's content hash is
// already in the log.
var ErrDuplicate = errors.New("activity already imported")

// Store is an open activity log.
type Store struct {
	db *sql.DB
}

// Entry is one imported activity. Pointer fields are nil when the
// recording had no channel to compute them from.
type Entry struct {
	ID          int64
	Name        string
	Format      string
	SHA256      string
	SizeBytes   int64
	Sport       string
	StartTime   time.Time
	MovingTime  time.Duration
	ElapsedTime time.Duration
	DistanceM   *float64
	MeanPowerW  *float64
	NPW         *float64
	MeanHRBPM   *float64
	// Stress is the session's training stress score, from power when a
	// threshold power was configured, otherwise from heart rate.
	Stress *float64
}

// Summary aggregates stored activities over a trailing window.
type Summary struct {
	Activities int
	DistanceM  float64
	MovingTime time.Duration
	Stress     float64
}

// Open opens the log at path, creating the file and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring store: %w", err)
		}
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			format TEXT NOT NULL,
			sha256 TEXT NOT NULL UNIQUE,
			size_bytes INTEGER NOT NULL,
			sport TEXT,
			start_time TEXT NOT NULL,
			moving_s REAL NOT NULL,
			elapsed_s REAL NOT NULL,
			distance_m REAL,
			mean_power_w REAL,
			np_w REAL,
			mean_hr_bpm REAL,
			stress REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_time ON activities(start_time)`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Insert adds e to the log and returns its row id. A recording whose
// sha256 is already stored comes back as ErrDuplicate.
func (s *Store) Insert(ctx context.Context, e Entry) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO activities (
			name, format, sha256, size_bytes, sport, start_time,
			moving_s, elapsed_s, distance_m, mean_power_w, np_w, mean_hr_bpm, stress
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Name, e.Format, e.SHA256, e.SizeBytes, e.Sport,
		e.StartTime.UTC().Format(time.RFC3339),
		e.MovingTime.Seconds(), e.ElapsedTime.Seconds(),
		e.DistanceM, e.MeanPowerW, e.NPW, e.MeanHRBPM, e.Stress,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrDuplicate
	}
	return res.LastInsertId()
}

// List returns all stored activities, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, format, sha256, size_bytes, sport, start_time,
			moving_s, elapsed_s, distance_m, mean_power_w, np_w, mean_hr_bpm, stress
		FROM activities
		ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var start string
		var movingS, elapsedS float64
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Format, &e.SHA256, &e.SizeBytes, &e.Sport, &start,
			&movingS, &elapsedS, &e.DistanceM, &e.MeanPowerW, &e.NPW, &e.MeanHRBPM, &e.Stress,
		); err != nil {
			return nil, err
		}
		e.StartTime, err = time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("parsing start_time %q: %w", start, err)
		}
		e.MovingTime = time.Duration(movingS * float64(time.Second))
		e.ElapsedTime = time.Duration(elapsedS * float64(time.Second))
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary totals the activities whose start time falls in the last days
// days. days <= 0 means the whole log.
func (s *Store) Summary(ctx context.Context, days int) (Summary, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(distance_m), 0), COALESCE(SUM(moving_s), 0), COALESCE(SUM(stress), 0)
		FROM activities
	`
	args := []any{}
	if days > 0 {
		query += ` WHERE start_time >= ?`
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		args = append(args, cutoff.Format(time.RFC3339))
	}

	var out Summary
	var movingS float64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&out.Activities, &out.DistanceM, &movingS, &out.Stress)
	if err != nil {
		return Summary{}, err
	}
	out.MovingTime = time.Duration(movingS * float64(time.Second))
	return out, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobscout/internal/model"
)

const createJobsTable = `CREATE TABLE IF NOT EXISTS jobs (
	key              TEXT PRIMARY KEY,
	url              TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL,
	company          TEXT NOT NULL,
	location         TEXT NOT NULL DEFAULT '',
	salary           TEXT NOT NULL DEFAULT '',
	salary_estimated INTEGER NOT NULL DEFAULT 0,
	portal           TEXT NOT NULL DEFAULT '',
	posted_at        TEXT NOT NULL DEFAULT '',
	found_at         TEXT NOT NULL DEFAULT '',
	priority         TEXT NOT NULL DEFAULT '',
	reason           TEXT NOT NULL DEFAULT '',
	reviewed         INTEGER NOT NULL DEFAULT 0
)`

const insertJob = `INSERT OR IGNORE INTO jobs
	(key, url, title, company, location, salary, salary_estimated, portal, posted_at, found_at, priority, reason, reviewed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteStore keeps accepted jobs in a SQLite database keyed by job key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(createJobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ExistingKeys returns the key of every stored job.
func (s *SQLiteStore) ExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM jobs")
	if err != nil {
		return nil, fmt.Errorf("querying job keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning job key: %w", err)
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job keys: %w", err)
	}
	return keys, nil
}

// Append inserts jobs in one transaction. Keys already present are left
// untouched.
func (s *SQLiteStore) Append(ctx context.Context, jobs []model.AnnotatedJob) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertJob)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range jobs {
		if _, err := stmt.ExecContext(ctx, row(j)...); err != nil {
			return fmt.Errorf("inserting job %s: %w", j.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing append: %w", err)
	}
	return nil
}

// MarkReviewed flags jobs as reviewed.
func (s *SQLiteStore) MarkReviewed(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := "UPDATE jobs SET reviewed = 1 WHERE key IN (?" + strings.Repeat(", ?", len(keys)-1) + ")"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("marking jobs reviewed: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// PruneReviewed deletes reviewed jobs.
func (s *SQLiteStore) PruneReviewed(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE reviewed = 1")
	if err != nil {
		return 0, fmt.Errorf("pruning reviewed jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Cleanup deletes jobs found longer ago than olderThan.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE found_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up jobs older than %v: %w", olderThan, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Count returns the number of stored jobs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

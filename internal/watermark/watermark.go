// Package watermark persists the last successful run boundary in a small
// JSON file guarded by a lock file.
package watermark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"github.com/amishk599/jobscout/internal/model"
)

const (
	readableLayout = "2006-01-02 15:04:05"
	lockRetryDelay = 50 * time.Millisecond
)

// ErrLocked is returned when the lock file cannot be acquired before the
// context is done.
var ErrLocked = errors.New("watermark file is locked")

// record is the on-disk format.
type record struct {
	LastSuccessfulRun string `json:"last_successful_run"`
	TimestampReadable string `json:"timestamp_readable"`
	JobsFound         int    `json:"jobs_found"`
}

// FileStore is a model.WatermarkStore backed by a JSON file.
type FileStore struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewFileStore creates a store for path. The lock lives next to it as
// <path>.lock.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the watermark file path.
func (s *FileStore) Path() string { return s.path }

// Read returns the stored watermark. A missing or unparseable file yields
// the zero Watermark.
func (s *FileStore) Read(ctx context.Context) (model.Watermark, error) {
	if err := s.acquire(ctx, true); err != nil {
		return model.Watermark{}, err
	}
	defer s.release()

	return s.read()
}

// Write records a successful run that started at `at`. Writes never move the
// watermark backwards: an older `at` keeps the stored value.
func (s *FileStore) Write(ctx context.Context, at time.Time, jobsFound int) error {
	if err := s.acquire(ctx, false); err != nil {
		return err
	}
	defer s.release()

	current, err := s.read()
	if err != nil {
		return err
	}
	if current.LastSuccessfulRunAt != nil && at.Before(*current.LastSuccessfulRunAt) {
		s.logger.Warn("watermark not moved backwards",
			"stored", current.LastSuccessfulRunAt.Format(time.RFC3339),
			"requested", at.Format(time.RFC3339),
		)
		return nil
	}

	data, err := json.MarshalIndent(record{
		LastSuccessfulRun: at.Format(time.RFC3339Nano),
		TimestampReadable: at.Format(readableLayout),
		JobsFound:         jobsFound,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding watermark: %w", err)
	}
	return writeAtomic(s.path, data)
}

// Reset deletes the stored watermark so the next run is a first run.
func (s *FileStore) Reset(ctx context.Context) error {
	if err := s.acquire(ctx, false); err != nil {
		return err
	}
	defer s.release()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing watermark: %w", err)
	}
	return nil
}

func (s *FileStore) read() (model.Watermark, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Watermark{}, nil
	}
	if err != nil {
		return model.Watermark{}, fmt.Errorf("reading watermark: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("corrupt watermark file, treating as first run", "path", s.path, "error", err)
		return model.Watermark{}, nil
	}
	at, ok := parseTime(rec.LastSuccessfulRun)
	if !ok {
		s.logger.Warn("invalid watermark timestamp, treating as first run", "path", s.path, "value", rec.LastSuccessfulRun)
		return model.Watermark{}, nil
	}
	return model.Watermark{LastSuccessfulRunAt: &at, JobsFound: rec.JobsFound}, nil
}

func (s *FileStore) acquire(ctx context.Context, shared bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating watermark directory: %w", err)
	}

	var (
		ok  bool
		err error
	)
	if shared {
		ok, err = s.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = s.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrLocked, err)
	}
	if err != nil {
		return fmt.Errorf("locking watermark: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

func (s *FileStore) release() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release watermark lock", "error", err)
	}
}

// parseTime accepts RFC 3339 and the offset-less ISO form older files used.
func parseTime(v string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", v, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// writeAtomic writes data to a temp file in the same directory, syncs it and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp watermark: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp watermark: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp watermark: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp watermark: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing watermark: %w", err)
	}
	return nil
}

// Since describes how long ago the watermark was set, e.g. "3 hours ago".
func Since(w model.Watermark, now time.Time) string {
	if w.LastSuccessfulRunAt == nil {
		return "never"
	}
	return humanize.RelTime(*w.LastSuccessfulRunAt, now, "ago", "from now")
}

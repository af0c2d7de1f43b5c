package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3rciful/ledgerbot/core/logger"
)

// FileStore keeps the ledger in a comma-separated text file.
//
// Appends hold the write lock; reads and exports share the read lock, so a
// reader never observes a partially written row. The file is re-read on
// every append so rows added by hand between appends are counted.
type FileStore struct {
	path string
	now  func() time.Time

	mu sync.RWMutex
}

// Option customizes a FileStore.
type Option func(*FileStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFileStore returns a store for the file at path. Nothing is touched on disk
// until EnsureInitialized or Append runs.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the ledger file location.
func (s *FileStore) Path() string { return s.path }

// EnsureInitialized writes the header when the file is missing or empty.
func (s *FileStore) EnsureInitialized(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.ensureLocked()
	if err != nil {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelError, "ledger.init",
			slog.String("status", "fail"), slog.String("path", s.path), slog.Any("err", err))
		return err
	}
	if created {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.init",
			slog.String("status", "ok"), slog.String("path", s.path), slog.Bool("created", true))
	}
	return nil
}

func (s *FileStore) ensureLocked() (bool, error) {
	info, err := os.Stat(s.path)
	switch {
	case err == nil && info.IsDir():
		return false, &StorageError{Op: "init", Path: s.path, Err: errors.New("path is a directory")}
	case err == nil && info.Size() > 0:
		return false, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return false, &StorageError{Op: "init", Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, &StorageError{Op: "init", Path: s.path, Err: err}
		}
	}
	if err := os.WriteFile(s.path, []byte(Header+"\n"), 0o644); err != nil {
		return false, &StorageError{Op: "init", Path: s.path, Err: err}
	}
	return true, nil
}

// Append assigns the next ID and writes the record. On error nothing is committed.
func (s *FileStore) Append(ctx context.Context, d Draft) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.appendLocked(d)
	if err != nil {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelError, "ledger.append",
			slog.String("status", "fail"), slog.String("path", s.path),
			slog.String("tx_type", d.Type.String()), slog.Any("err", err))
		return Record{}, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.append",
		slog.String("status", "ok"), slog.String("outcome", "committed"),
		slog.Int64("record_id", rec.ID), slog.String("tx_type", d.Type.String()),
		slog.Duration("duration", logger.Took(start)))
	return rec, nil
}

func (s *FileStore) appendLocked(d Draft) (Record, error) {
	if _, err := s.ensureLocked(); err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Record{}, &StorageError{Op: "read", Path: s.path, Err: err}
	}

	rec, err := NewRecord(int64(countRows(data))+1, s.now().Truncate(time.Second), d)
	if err != nil {
		return Record{}, err
	}
	row := []byte(FormatRow(rec) + "\n")
	if len(data) > 0 && data[len(data)-1] != '\n' {
		row = append([]byte{'\n'}, row...)
	}
	if err := s.writeAt(int64(len(data)), row); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// writeAt appends row to a file of the given size and rolls back to size on failure.
func (s *FileStore) writeAt(size int64, row []byte) (err error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return &StorageError{Op: "open", Path: s.path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &StorageError{Op: "close", Path: s.path, Err: cerr}
		}
	}()

	if _, err = f.Write(row); err == nil {
		err = f.Sync()
	}
	if err != nil {
		if terr := f.Truncate(size); terr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", terr))
		}
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// ReadAll returns every record in file order.
func (s *FileStore) ReadAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, ErrEmptyLedger
	case err != nil:
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}

	records, err := Decode(data)
	if err != nil {
		return nil, &StorageError{Op: "decode", Path: s.path, Err: err}
	}
	if len(records) == 0 {
		return nil, ErrEmptyLedger
	}
	return records, nil
}

// Export returns the file contents unchanged, or ErrNotFound when there are no rows.
func (s *FileStore) Export(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, ErrNotFound
	case err != nil:
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	case countRows(data) == 0:
		return nil, ErrNotFound
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.export",
		slog.String("status", "ok"), slog.Int("bytes", len(data)))
	return data, nil
}

var _ Store = (*FileStore)(nil)

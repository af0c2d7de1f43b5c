// Package pgstore keeps the ledger in PostgreSQL. Export renders the same
// file format as the file store.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/internal/ledger"
)

// Migrations holds the schema, applied by core/database.RunMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

const table = "ledger_records"

type row struct {
	ID          int64           `db:"id"`
	CreatedAt   time.Time       `db:"created_at"`
	Username    string          `db:"username"`
	UserID      int64           `db:"user_id"`
	Income      decimal.Decimal `db:"income"`
	Expense     decimal.Decimal `db:"expense"`
	Description string          `db:"description"`
}

func fromRecord(r ledger.Record) row {
	return row{
		ID:          r.ID,
		CreatedAt:   r.Timestamp,
		Username:    r.Username,
		UserID:      r.UserID,
		Income:      r.Income,
		Expense:     r.Expense,
		Description: r.Description,
	}
}

// record converts back, reading the TIMESTAMP column as local wall clock.
func (r row) record() ledger.Record {
	ts := r.CreatedAt
	return ledger.Record{
		ID:          r.ID,
		Timestamp:   time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, time.Local),
		Username:    r.Username,
		UserID:      r.UserID,
		Income:      r.Income,
		Expense:     r.Expense,
		Description: r.Description,
	}
}

// Store implements ledger.Store on a ledger_records table.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// EnsureInitialized checks that the migrated table is reachable.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE false`); err != nil {
		return &ledger.StorageError{Op: "init", Path: table, Err: err}
	}
	return nil
}

// Append inserts the next record while holding an exclusive table lock, so
// concurrent appenders from other processes still get consecutive IDs.
func (s *Store) Append(ctx context.Context, d ledger.Draft) (ledger.Record, error) {
	start := time.Now()
	rec, err := s.append(ctx, d)
	if err != nil {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelError, "ledger.append",
			slog.String("status", "fail"), slog.String("driver", "postgres"),
			slog.String("tx_type", d.Type.String()), slog.Any("err", err))
		return ledger.Record{}, err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.append",
		slog.String("status", "ok"), slog.String("outcome", "committed"), slog.String("driver", "postgres"),
		slog.Int64("record_id", rec.ID), slog.String("tx_type", d.Type.String()),
		slog.Duration("duration", logger.Took(start)))
	return rec, nil
}

func (s *Store) append(ctx context.Context, d ledger.Draft) (ledger.Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return ledger.Record{}, &ledger.StorageError{Op: "begin", Path: table, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE `+table+` IN EXCLUSIVE MODE`); err != nil {
		return ledger.Record{}, &ledger.StorageError{Op: "lock", Path: table, Err: err}
	}
	var count int64
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+table); err != nil {
		return ledger.Record{}, &ledger.StorageError{Op: "count", Path: table, Err: err}
	}

	rec, err := ledger.NewRecord(count+1, s.now().Truncate(time.Second), d)
	if err != nil {
		return ledger.Record{}, err
	}
	const insert = `INSERT INTO ` + table + ` (id, created_at, username, user_id, income, expense, description)
VALUES (:id, :created_at, :username, :user_id, :income, :expense, :description)`
	if _, err := tx.NamedExecContext(ctx, insert, fromRecord(rec)); err != nil {
		return ledger.Record{}, &ledger.StorageError{Op: "insert", Path: table, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return ledger.Record{}, &ledger.StorageError{Op: "commit", Path: table, Err: err}
	}
	return rec, nil
}

// ReadAll returns records ordered by ID.
func (s *Store) ReadAll(ctx context.Context) ([]ledger.Record, error) {
	var rows []row
	const query = `SELECT id, created_at, username, user_id, income, expense, description FROM ` + table + ` ORDER BY id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, &ledger.StorageError{Op: "read", Path: table, Err: err}
	}
	if len(rows) == 0 {
		return nil, ledger.ErrEmptyLedger
	}
	records := make([]ledger.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

// Export renders the table in the ledger file format.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	records, err := s.ReadAll(ctx)
	if errors.Is(err, ledger.ErrEmptyLedger) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	data := ledger.Encode(records)
	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.export",
		slog.String("status", "ok"), slog.String("driver", "postgres"), slog.Int("bytes", len(data)))
	return data, nil
}

var _ ledger.Store = (*Store)(nil)

package pgstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	coredatabase "github.com/m3rciful/ledgerbot/core/database"
	"github.com/m3rciful/ledgerbot/internal/ledger"
)

// testDBPrefix selects the database for the tests below, e.g.
// LEDGER_TEST_DB_HOST=localhost LEDGER_TEST_DB_NAME=ledger LEDGER_TEST_DB_USER=ledger.
const testDBPrefix = "LEDGER_TEST"

var testNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.Local)

// openTestStore connects, migrates and empties the table. Tests are skipped
// when no test database is configured.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv(testDBPrefix+"_DB_HOST") == "" {
		t.Skip(testDBPrefix + "_DB_HOST not set")
	}
	var cfg coreconfig.DatabaseConfig
	require.NoError(t, envconfig.Process(testDBPrefix, &cfg))
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 8
	}

	ctx := context.Background()
	require.NoError(t, coredatabase.RunMigrations(ctx, cfg, Migrations, MigrationsDir))
	db, err := coredatabase.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `TRUNCATE `+table)
	require.NoError(t, err)

	s := New(db)
	s.now = func() time.Time { return testNow }
	require.NoError(t, s.EnsureInitialized(ctx))
	return s
}

func pgDraft(amount, desc string, typ ledger.Type) ledger.Draft {
	return ledger.Draft{
		Entry:    ledger.Entry{Amount: decimal.RequireFromString(amount), Description: desc},
		Type:     typ,
		Username: "alice",
		UserID:   42,
	}
}

func TestPostgresEmptyLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.ReadAll(ctx)
	assert.ErrorIs(t, err, ledger.ErrEmptyLedger)

	data, err := s.Export(ctx)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Nil(t, data)
}

func TestPostgresAppendRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	income, err := s.Append(ctx, pgDraft("1000", "Зарплата", ledger.Income))
	require.NoError(t, err)
	expense, err := s.Append(ctx, pgDraft("250.55", "Rent, May", ledger.Expense))
	require.NoError(t, err)
	assert.Equal(t, int64(1), income.ID)
	assert.Equal(t, int64(2), expense.ID)

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for i, want := range []ledger.Record{income, expense} {
		got := records[i]
		assert.Equal(t, ledger.FormatRow(want), ledger.FormatRow(got))
		assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", got.Timestamp, want.Timestamp)
		assert.True(t, want.Income.Equal(got.Income))
		assert.True(t, want.Expense.Equal(got.Expense))
		assert.Equal(t, want.Type(), got.Type())
	}

	data, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Header+"\n"+
		"1, 2024-05-01 12:30:00, alice, 42, 1000.0, 0.0, Зарплата\n"+
		"2, 2024-05-01 12:30:00, alice, 42, 0.0, 250.55, Rent May\n", string(data))
}

func TestPostgresConcurrentAppendsGetConsecutiveIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	const (
		workers   = 8
		perWorker = 5
	)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				if _, err := s.Append(ctx, pgDraft("1", fmt.Sprintf("w%d-%d", w, i), ledger.Income)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, workers*perWorker)
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, int(r.ID))
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

package pgstore

import (
	"io/fs"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/internal/ledger"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, MigrationsDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{
		"000001_create_ledger_records.down.sql",
		"000001_create_ledger_records.up.sql",
	}, names)
}

func TestRowConversionKeepsWallClock(t *testing.T) {
	rec, err := ledger.NewRecord(3, time.Date(2024, 5, 1, 23, 59, 58, 0, time.Local), ledger.Draft{
		Entry:    ledger.Entry{Amount: decimal.RequireFromString("12.5"), Description: "Taxi"},
		Type:     ledger.Expense,
		Username: "bob",
		UserID:   9,
	})
	require.NoError(t, err)

	r := fromRecord(rec)
	// lib/pq hands TIMESTAMP columns back as UTC with the stored wall clock.
	r.CreatedAt = time.Date(2024, 5, 1, 23, 59, 58, 0, time.UTC)

	back := r.record()
	assert.Equal(t, ledger.FormatRow(rec), ledger.FormatRow(back))
	assert.Equal(t, ledger.Expense, back.Type())
}

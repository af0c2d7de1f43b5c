package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRow(t *testing.T) {
	rec := Record{
		ID:          3,
		Timestamp:   time.Date(2024, 5, 1, 9, 5, 7, 0, time.Local),
		Username:    "ann,\nsmith",
		UserID:      42,
		Income:      decimal.Zero,
		Expense:     decimal.RequireFromString("250.50"),
		Description: "Rent, May",
	}
	assert.Equal(t, "3, 2024-05-01 09:05:07, ann smith, 42, 0.0, 250.5, Rent May", FormatRow(rec))
}

func TestParseRowRoundTrip(t *testing.T) {
	line := "7, 2024-05-01 12:30:00, alice, 42, 1000.0, 0.0, Зарплата"
	rec, err := ParseRow(line)
	require.NoError(t, err)

	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, "alice", rec.Username)
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, Income, rec.Type())
	assert.True(t, rec.Amount().Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "Зарплата", rec.Description)
	assert.Equal(t, line, FormatRow(rec))
}

func TestParseRowRejectsMalformed(t *testing.T) {
	for _, line := range []string{
		"1, 2024-05-01 12:30:00, alice",
		"x, 2024-05-01 12:30:00, alice, 42, 1.0, 0.0, d",
		"1, yesterday, alice, 42, 1.0, 0.0, d",
		"1, 2024-05-01 12:30:00, alice, 42, one, 0.0, d",
	} {
		_, err := ParseRow(line)
		assert.Error(t, err, line)
	}
}

func TestDecodeSkipsHeaderAndBlankLines(t *testing.T) {
	data := Header + "\n\n1, 2024-05-01 12:30:00, a, 1, 5.0, 0.0, x\n  \n2, 2024-05-01 12:31:00, b, 2, 0.0, 3.5, y"
	records, err := Decode([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Expense, records[1].Type())
	assert.Equal(t, 2, countRows([]byte(data)))

	assert.Equal(t, data[:len(Header)+1]+"1, 2024-05-01 12:30:00, a, 1, 5.0, 0.0, x\n2, 2024-05-01 12:31:00, b, 2, 0.0, 3.5, y\n",
		string(Encode(records)))
}

func TestNewRecordValidatesDraft(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	draft := Draft{Entry: Entry{Amount: decimal.NewFromInt(5), Description: "x"}, Type: Expense}

	rec, err := NewRecord(1, ts, draft)
	require.NoError(t, err)
	assert.Equal(t, UnknownUser, rec.Username)
	assert.True(t, rec.Income.IsZero())
	assert.Equal(t, "5", rec.Expense.String())

	_, err = NewRecord(1, ts, Draft{Entry: draft.Entry})
	assert.Error(t, err, "missing type")
	_, err = NewRecord(0, ts, draft)
	assert.Error(t, err, "zero id")
	draft.Amount = decimal.Zero
	_, err = NewRecord(1, ts, draft)
	assert.Error(t, err, "zero amount")
}

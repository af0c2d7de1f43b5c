// Package ledger is the append-only record store behind the bot: the row
// schema, parsing of "amount, description" input, ID assignment and the
// storage backends.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type tells whether a record is income or expense.
type Type int

const (
	// TypeNone means no transaction type has been chosen.
	TypeNone Type = iota
	// Income credits the ledger.
	Income
	// Expense debits the ledger.
	Expense
)

func (t Type) String() string {
	switch t {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "none"
	}
}

// UnknownUser is written when the transport provides no username.
const UnknownUser = "Unknown"

// Entry is the validated payload of an "amount, description" message.
type Entry struct {
	Amount      decimal.Decimal
	Description string
}

// Draft is everything needed to commit one record except its ID and time.
type Draft struct {
	Entry
	Type     Type
	Username string
	UserID   int64
}

// Record is one committed ledger row. Exactly one of Income and Expense is non-zero.
type Record struct {
	ID          int64
	Timestamp   time.Time
	Username    string
	UserID      int64
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Description string
}

// Type derives the transaction type from which column carries the amount.
func (r Record) Type() Type {
	switch {
	case !r.Income.IsZero():
		return Income
	case !r.Expense.IsZero():
		return Expense
	default:
		return TypeNone
	}
}

// Amount returns the non-zero column.
func (r Record) Amount() decimal.Decimal {
	if r.Type() == Expense {
		return r.Expense
	}
	return r.Income
}

// Store is the contract shared by the ledger backends.
type Store interface {
	// EnsureInitialized prepares storage; it is idempotent.
	EnsureInitialized(ctx context.Context) error
	// Append assigns the next ID and durably writes the record.
	Append(ctx context.Context, d Draft) (Record, error)
	// ReadAll returns records in ID order, or ErrEmptyLedger.
	ReadAll(ctx context.Context) ([]Record, error)
	// Export returns the ledger as file bytes, or ErrNotFound.
	Export(ctx context.Context) ([]byte, error)
}

// NewRecord builds the record that Append writes for d. The result is
// normalized through the row codec, so it compares equal to what a later
// read returns.
func NewRecord(id int64, ts time.Time, d Draft) (Record, error) {
	if id <= 0 {
		return Record{}, fmt.Errorf("ledger: record id must be positive, got %d", id)
	}
	if !d.Amount.IsPositive() {
		return Record{}, fmt.Errorf("ledger: amount must be positive, got %s", d.Amount)
	}
	rec := Record{
		ID:          id,
		Timestamp:   ts,
		Username:    d.Username,
		UserID:      d.UserID,
		Income:      decimal.Zero,
		Expense:     decimal.Zero,
		Description: d.Description,
	}
	switch d.Type {
	case Income:
		rec.Income = d.Amount
	case Expense:
		rec.Expense = d.Amount
	default:
		return Record{}, fmt.Errorf("ledger: unsupported transaction type %q", d.Type)
	}
	if clean(rec.Username) == "" {
		rec.Username = UnknownUser
	}
	return ParseRow(FormatRow(rec))
}

package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Separator splits amount from description in user input and columns in rows.
const Separator = ", "

const (
	maxAmountScale = 8
	maxAmountLen   = 32
)

var maxAmount = decimal.New(1, 15)

// ParseEntry validates an "amount, description" message.
//
// The text is cut at the first Separator only, so a description may itself
// contain ", ". The amount must be a positive decimal; the description must
// keep some text once commas are removed.
func ParseEntry(raw string) (Entry, error) {
	amountPart, description, ok := strings.Cut(raw, Separator)
	if !ok {
		return Entry{}, &ParseError{Kind: ErrFormat, Input: raw, Reason: "separator not found"}
	}
	description = strings.TrimSpace(description)
	// Commas are dropped on write, so a description made of them is empty too.
	if clean(description) == "" {
		return Entry{}, &ParseError{Kind: ErrFormat, Input: raw, Reason: "description is empty"}
	}

	amountPart = strings.TrimSpace(amountPart)
	if amountPart == "" || len(amountPart) > maxAmountLen {
		return Entry{}, &ParseError{Kind: ErrNumeric, Input: raw, Reason: "amount is missing or too long"}
	}
	amount, err := decimal.NewFromString(amountPart)
	if err != nil {
		return Entry{}, &ParseError{Kind: ErrNumeric, Input: raw, Err: err}
	}
	switch {
	case !amount.IsPositive():
		return Entry{}, &ParseError{Kind: ErrNumeric, Input: raw, Reason: "amount must be greater than zero"}
	case amount.GreaterThanOrEqual(maxAmount):
		return Entry{}, &ParseError{Kind: ErrNumeric, Input: raw, Reason: "amount is too large"}
	case amount.Exponent() < -maxAmountScale:
		return Entry{}, &ParseError{Kind: ErrNumeric, Input: raw, Reason: "too many decimal places"}
	}
	return Entry{Amount: amount, Description: description}, nil
}

package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat reports input without the ", " separator or without a description.
	ErrFormat = errors.New("entry must look like \"amount, description\"")
	// ErrNumeric reports an amount that is not a positive decimal number.
	ErrNumeric = errors.New("amount is not a positive number")
	// ErrEmptyLedger is returned by ReadAll when storage holds no data rows.
	ErrEmptyLedger = errors.New("ledger has no records")
	// ErrNotFound is returned by Export when there is nothing to hand out.
	ErrNotFound = errors.New("ledger file is missing or empty")
)

// ParseError describes rejected user input. Kind is ErrFormat or ErrNumeric.
type ParseError struct {
	Kind   error
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code is picked up by the handler summary logs.
func (e *ParseError) Code() string {
	if errors.Is(e.Kind, ErrNumeric) {
		return "NUMERIC_ERROR"
	}
	return "FORMAT_ERROR"
}

// StorageError wraps a failed read or write of the underlying storage.
// When Append returns it, the record was not committed.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Code is picked up by the handler summary logs.
func (e *StorageError) Code() string { return "STORAGE_IO" }

// Package session tracks where each user is in the record dialogue.
package session

import (
	"github.com/m3rciful/ledgerbot/core/telegram/state"
	"github.com/m3rciful/ledgerbot/internal/ledger"
)

// State is the dialogue step a session is waiting on.
type State int

const (
	// AwaitingTransactionType waits for the user to pick income or expense.
	AwaitingTransactionType State = iota
	// AwaitingAmountAndDescription waits for an "amount, description" message.
	AwaitingAmountAndDescription
)

func (s State) String() string {
	switch s {
	case AwaitingTransactionType:
		return "awaiting_type"
	case AwaitingAmountAndDescription:
		return "awaiting_amount"
	default:
		return "unknown"
	}
}

// Session is the per-user dialogue state. The zero value is the initial state.
type Session struct {
	State   State
	Pending ledger.Type
}

// Valid reports whether Pending is set exactly when an amount is awaited.
func (s Session) Valid() bool {
	return (s.Pending != ledger.TypeNone) == (s.State == AwaitingAmountAndDescription)
}

// SetType records the chosen type and moves on to the amount step,
// replacing any type chosen before. TypeNone resets the session.
func (s *Session) SetType(t ledger.Type) {
	if t != ledger.Income && t != ledger.Expense {
		s.Reset()
		return
	}
	s.Pending = t
	s.State = AwaitingAmountAndDescription
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.Pending = ledger.TypeNone
	s.State = AwaitingTransactionType
}

// Clear drops the pending type. A session that was waiting for an amount
// falls back to the type step.
func (s *Session) Clear() {
	s.Pending = ledger.TypeNone
	if s.State == AwaitingAmountAndDescription {
		s.State = AwaitingTransactionType
	}
}

// Store holds sessions keyed by the transport's user ID.
type Store struct {
	sessions *state.Store[Session]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: state.NewStore[Session](nil)}
}

// Get returns a copy of the session, creating it on first access.
func (s *Store) Get(id int64) Session {
	return s.sessions.Load(id)
}

// SetType chooses a transaction type for the session.
func (s *Store) SetType(id int64, t ledger.Type) {
	_ = s.Do(id, func(sess *Session) error {
		sess.SetType(t)
		return nil
	})
}

// Reset returns the session to its initial state.
func (s *Store) Reset(id int64) {
	_ = s.Do(id, func(sess *Session) error {
		sess.Reset()
		return nil
	})
}

// Clear drops the session's pending type.
func (s *Store) Clear(id int64) {
	_ = s.Do(id, func(sess *Session) error {
		sess.Clear()
		return nil
	})
}

// Do runs fn with the session locked. Events for one session are handled
// one at a time; fn must not call back into the store for the same id.
func (s *Store) Do(id int64, fn func(*Session) error) error {
	return s.sessions.Do(id, fn)
}

// Len reports how many sessions exist.
func (s *Store) Len() int {
	return s.sessions.Len()
}

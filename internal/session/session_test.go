package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/ledgerbot/internal/ledger"
)

func TestGetCreatesInitialSession(t *testing.T) {
	s := NewStore()
	sess := s.Get(7)

	assert.Equal(t, AwaitingTransactionType, sess.State)
	assert.Equal(t, ledger.TypeNone, sess.Pending)
	assert.True(t, sess.Valid())
	assert.Equal(t, 1, s.Len())
}

func TestTransitionsKeepInvariant(t *testing.T) {
	s := NewStore()
	const id = 1

	steps := []struct {
		name    string
		apply   func()
		state   State
		pending ledger.Type
	}{
		{"choose income", func() { s.SetType(id, ledger.Income) }, AwaitingAmountAndDescription, ledger.Income},
		{"reselect expense", func() { s.SetType(id, ledger.Expense) }, AwaitingAmountAndDescription, ledger.Expense},
		{"reset", func() { s.Reset(id) }, AwaitingTransactionType, ledger.TypeNone},
		{"clear while idle", func() { s.Clear(id) }, AwaitingTransactionType, ledger.TypeNone},
		{"choose again", func() { s.SetType(id, ledger.Income) }, AwaitingAmountAndDescription, ledger.Income},
		{"clear while awaiting amount", func() { s.Clear(id) }, AwaitingTransactionType, ledger.TypeNone},
		{"choose expense", func() { s.SetType(id, ledger.Expense) }, AwaitingAmountAndDescription, ledger.Expense},
		{"choose no type", func() { s.SetType(id, ledger.TypeNone) }, AwaitingTransactionType, ledger.TypeNone},
		{"choose unknown type", func() { s.SetType(id, ledger.Type(42)) }, AwaitingTransactionType, ledger.TypeNone},
	}
	for _, step := range steps {
		step.apply()
		sess := s.Get(id)
		assert.Equal(t, step.state, sess.State, step.name)
		assert.Equal(t, step.pending, sess.Pending, step.name)
		assert.True(t, sess.Valid(), step.name)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Session{}.Valid())
	assert.True(t, Session{State: AwaitingAmountAndDescription, Pending: ledger.Expense}.Valid())
	assert.False(t, Session{State: AwaitingAmountAndDescription}.Valid())
	assert.False(t, Session{Pending: ledger.Income}.Valid())
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStore()
	s.SetType(1, ledger.Income)

	assert.Equal(t, ledger.Income, s.Get(1).Pending)
	assert.Equal(t, ledger.TypeNone, s.Get(2).Pending)
}

func TestDoPropagatesErrorAndKeepsMutation(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")

	err := s.Do(3, func(sess *Session) error {
		sess.SetType(ledger.Expense)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, ledger.Expense, s.Get(3).Pending)
}

func TestConcurrentAccessSameSession(t *testing.T) {
	s := NewStore()
	var g errgroup.Group
	for i := 0; i < 64; i++ {
		i := i
		g.Go(func() error {
			if i%2 == 0 {
				s.SetType(5, ledger.Income)
			} else {
				s.Reset(5)
			}
			if !s.Get(5).Valid() {
				return errors.New("invariant broken")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

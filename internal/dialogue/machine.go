// Package dialogue turns incoming text into session transitions, ledger
// appends and reply messages. It knows nothing about the transport.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/internal/ledger"
	"github.com/m3rciful/ledgerbot/internal/session"
)

// Event is one inbound text message.
type Event struct {
	SessionID   int64
	UserID      int64
	Username    string
	DisplayName string
	Text        string
}

// Message is one outbound reply.
type Message struct {
	Text string
	// Preformatted asks the transport to render Text in a monospace block.
	Preformatted bool
	// QuickReplies are offered as reply buttons.
	QuickReplies []string
	// HideQuickReplies removes any reply buttons shown earlier.
	HideQuickReplies bool
}

type stepFunc func(ctx context.Context, ev Event, sess *session.Session) ([]Message, string)

// Machine runs the record dialogue. Events for the same session are handled
// one at a time; different sessions proceed in parallel.
type Machine struct {
	sessions   *session.Store
	store      ledger.Store
	recentRows int
	steps      map[session.State]stepFunc
}

// Option customizes a Machine.
type Option func(*Machine)

// WithRecentRows sets how many trailing records are shown after a commit.
// Zero or less disables the table.
func WithRecentRows(n int) Option {
	return func(m *Machine) { m.recentRows = n }
}

// New wires a machine to its session and ledger stores.
func New(sessions *session.Store, store ledger.Store, opts ...Option) *Machine {
	m := &Machine{sessions: sessions, store: store, recentRows: 10}
	m.steps = map[session.State]stepFunc{
		session.AwaitingTransactionType:      m.onType,
		session.AwaitingAmountAndDescription: m.onEntry,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start resets the session and greets the user.
func (m *Machine) Start(ctx context.Context, ev Event) []Message {
	_ = m.sessions.Do(ev.SessionID, func(sess *session.Session) error {
		from := sess.State
		sess.Reset()
		m.logTransition(ctx, "dialogue.start", from, sess, "ok")
		return nil
	})

	name := strings.TrimSpace(ev.DisplayName)
	if name == "" {
		name = strings.TrimSpace(ev.Username)
	}
	if name == "" {
		name = textGreetingGuest
	}
	return []Message{{Text: fmt.Sprintf(textGreeting, name), QuickReplies: TypeReplies}}
}

// Handle processes one text message for the event's session.
func (m *Machine) Handle(ctx context.Context, ev Event) []Message {
	var out []Message
	_ = m.sessions.Do(ev.SessionID, func(sess *session.Session) error {
		from := sess.State
		step, ok := m.steps[from]
		if !ok {
			sess.Reset()
			step = m.steps[sess.State]
		}
		var outcome string
		out, outcome = step(ctx, ev, sess)
		m.logTransition(ctx, "dialogue.step", from, sess, outcome)
		return nil
	})
	return out
}

// Export returns the ledger contents for download, or ledger.ErrNotFound.
func (m *Machine) Export(ctx context.Context) ([]byte, error) {
	data, err := m.store.Export(ctx)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		logger.LogEvent(ctx, logger.Dialogue, slog.LevelError, "dialogue.export",
			slog.String("status", "fail"), slog.Any("err", err))
	}
	return data, err
}

func (m *Machine) onType(_ context.Context, ev Event, sess *session.Session) ([]Message, string) {
	if strings.TrimSpace(ev.Text) == TokenFinish {
		sess.Clear()
		return []Message{{Text: textFinished, QuickReplies: TypeReplies}}, "ok"
	}
	t, err := ParseType(ev.Text)
	if err != nil {
		return []Message{{Text: textUnknownType, QuickReplies: TypeReplies}}, "rejected"
	}
	sess.SetType(t)
	return []Message{{Text: textAskEntry, HideQuickReplies: true}}, "ok"
}

func (m *Machine) onEntry(ctx context.Context, ev Event, sess *session.Session) ([]Message, string) {
	if t, err := ParseType(ev.Text); err == nil {
		sess.SetType(t)
		return []Message{{Text: textAskEntry, HideQuickReplies: true}}, "ok"
	}

	entry, err := ledger.ParseEntry(ev.Text)
	if err != nil {
		text := textFormatError
		if errors.Is(err, ledger.ErrNumeric) {
			text = textNumericError
		}
		logger.LogEvent(ctx, logger.Dialogue, slog.LevelDebug, "dialogue.entry.rejected",
			slog.Any("err", err), slog.String("text", logger.SanitizeLimit(ev.Text, 64)))
		return []Message{{Text: text}}, "rejected"
	}

	rec, err := m.store.Append(ctx, ledger.Draft{
		Entry:    entry,
		Type:     sess.Pending,
		Username: ev.Username,
		UserID:   ev.UserID,
	})
	if err != nil {
		return []Message{{Text: textStorageError}}, "fail"
	}
	sess.Reset()

	out := []Message{{Text: textRecorded}}
	if table, ok := m.recentTable(ctx); ok {
		out = append(out, Message{Text: textRecent}, Message{Text: table, Preformatted: true})
	}
	logger.LogEvent(ctx, logger.Dialogue, slog.LevelDebug, "dialogue.entry.committed", slog.Int64("record_id", rec.ID))
	return append(out, Message{Text: textNextType, QuickReplies: TypeReplies}), "committed"
}

func (m *Machine) recentTable(ctx context.Context) (string, bool) {
	if m.recentRows <= 0 {
		return "", false
	}
	records, err := m.store.ReadAll(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.Dialogue, slog.LevelWarn, "dialogue.recent",
			slog.String("status", "fail"), slog.Any("err", err))
		return "", false
	}
	return renderTable(tail(records, m.recentRows)), true
}

func (m *Machine) logTransition(ctx context.Context, event string, from session.State, sess *session.Session, outcome string) {
	logger.LogEvent(ctx, logger.Dialogue, slog.LevelInfo, event,
		slog.String("state", from.String()),
		slog.String("next_state", sess.State.String()),
		slog.String("tx_type", sess.Pending.String()),
		slog.String("outcome", outcome))
}

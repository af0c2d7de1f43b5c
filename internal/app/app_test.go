package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/ledgerbot/core/bootstrap"
	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	"github.com/m3rciful/ledgerbot/internal/ledger"
)

func fileConfig(t *testing.T) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "123:abc"},
		Ledger:   coreconfig.LedgerConfig{Path: filepath.Join(t.TempDir(), "var", "data.csv")},
	}
	require.NoError(t, coreconfig.Normalize(cfg))
	return cfg
}

func TestNewInitializesFileLedger(t *testing.T) {
	cfg := fileConfig(t)

	a, err := New(context.Background(), cfg, &bootstrap.Result{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	data, err := os.ReadFile(cfg.Ledger.Path)
	require.NoError(t, err)
	assert.Equal(t, ledger.Header+"\n", string(data))
}

func TestTelegramRunOptions(t *testing.T) {
	cfg := fileConfig(t)
	cfg.RateLimit.IntervalMS = 500

	a, err := New(context.Background(), cfg, &bootstrap.Result{})
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, cfg, opts.Config)
	assert.NotEmpty(t, opts.Routes)
	assert.Empty(t, opts.Background)

	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "metrics", "rate_limit"}, names)

	_, _, ok := opts.Registry.LookupCommand("/download")
	assert.True(t, ok)
}

func TestWatchAddsBackgroundTask(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Ledger.Watch = true

	a, err := New(context.Background(), cfg, &bootstrap.Result{})
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.Len(t, opts.Background, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, opts.Background[0](ctx))
}

func TestPostgresWithoutDatabase(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Ledger.Driver = coreconfig.LedgerDriverPostgres

	_, err := New(context.Background(), cfg, &bootstrap.Result{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection")
}

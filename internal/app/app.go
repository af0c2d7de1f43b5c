// Package app assembles the ledger bot from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/ledgerbot/core/bootstrap"
	"github.com/m3rciful/ledgerbot/core/cmd"
	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	"github.com/m3rciful/ledgerbot/core/logger"
	tg "github.com/m3rciful/ledgerbot/core/telegram"
	"github.com/m3rciful/ledgerbot/core/telegram/router"
	"github.com/m3rciful/ledgerbot/internal/bot"
	"github.com/m3rciful/ledgerbot/internal/dialogue"
	"github.com/m3rciful/ledgerbot/internal/ledger"
	"github.com/m3rciful/ledgerbot/internal/ledger/pgstore"
	"github.com/m3rciful/ledgerbot/internal/session"
)

// App holds the wired components of a running bot.
type App struct {
	cfg      *coreconfig.Config
	boot     *bootstrap.Result
	store    ledger.Store
	handlers *bot.Handlers
	registry *tg.Registry
}

// Bootstrap initializes infrastructure for cfg and builds the App.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config) (cmd.TelegramApp, error) {
	boot, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:        cfg,
		Migrations:    pgstore.Migrations,
		MigrationsDir: pgstore.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, boot)
	if err != nil {
		_ = boot.Close()
		return nil, err
	}
	return a, nil
}

// New builds the ledger store, dialogue and handlers. The ledger is
// initialized before New returns so the first update never sees a missing file.
func New(ctx context.Context, cfg *coreconfig.Config, boot *bootstrap.Result) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	store, err := openStore(cfg, boot)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureInitialized(ctx); err != nil {
		return nil, fmt.Errorf("app: ledger init failed: %w", err)
	}

	machine := dialogue.New(session.NewStore(), store, dialogue.WithRecentRows(cfg.Ledger.RecentRows))
	handlers := bot.New(machine, cfg.Ledger.ExportName)
	reg := tg.NewRegistry()
	handlers.Register(reg)

	logger.LogEvent(ctx, logger.Ledger, slog.LevelInfo, "ledger.ready",
		slog.String("driver", cfg.Ledger.Driver),
		slog.String("path", cfg.Ledger.Path),
	)
	return &App{cfg: cfg, boot: boot, store: store, handlers: handlers, registry: reg}, nil
}

func openStore(cfg *coreconfig.Config, boot *bootstrap.Result) (ledger.Store, error) {
	switch cfg.Ledger.Driver {
	case coreconfig.LedgerDriverPostgres:
		if boot == nil || boot.DB == nil {
			return nil, fmt.Errorf("app: postgres ledger requires a database connection")
		}
		return pgstore.New(boot.DB), nil
	case coreconfig.LedgerDriverFile, "":
		return ledger.NewFileStore(cfg.Ledger.Path), nil
	default:
		return nil, fmt.Errorf("app: unknown ledger driver %q", cfg.Ledger.Driver)
	}
}

// TelegramRunOptions describes middlewares, routes and background tasks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{
		UnknownDocument: a.handlers.UnknownDocument,
	})...)

	opts := tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg, a.handlers.RateLimited),
		Routes:      routes,
	}
	if fs, ok := a.store.(*ledger.FileStore); ok && a.cfg.Ledger.Watch {
		opts.Background = append(opts.Background, func(ctx context.Context) error {
			return ledger.Watch(ctx, fs, fs.Path())
		})
	}
	return opts, nil
}

// Close releases the database pool, if one was opened.
func (a *App) Close() error {
	return a.boot.Close()
}

// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/storage"
)

// App is an initialized application bound to one collection.
type App struct {
	*application
	store *storage.FS
	db    *index.DB
	notes *noteservice.Service
}

// Command is one CLI action run against an initialized App.
type Command func(ctx context.Context, app *App) error

// Run initializes the application with the given options, runs cmd and
// releases resources.
func Run(ctx context.Context, cmd Command, opts ...Option) error {
	app, err := open(opts...)
	if err != nil {
		return err
	}
	defer app.close()
	return cmd(ctx, app)
}

func open(opts ...Option) (*App, error) {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config
	a.strict = a.strict || cfg.Collections.Strict

	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.logger == nil {
		// Query output owns stdout; logs go to stderr.
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(a.logger)
	}

	root, err := cfg.Collections.Path(a.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}

	a.logger.Debug("Configuration loaded",
		slog.String("collection", root),
		slog.String("include", cfg.Collections.Include),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create collection dir: %w", err)
	}
	store, err := storage.NewFS(root, cfg.Collections.Include)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	app := &App{application: a, store: store}
	if cfg.Index.Enabled() {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		app.db = db
	}
	app.notes = noteservice.NewService(store, app.cache())
	return app, nil
}

func (a *App) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close index", slog.String("error", err.Error()))
		}
	}
}

// cache returns the record cache, or a nil interface when none is configured.
func (a *App) cache() index.RecordIndex {
	if a.db == nil {
		return nil
	}
	return a.db
}

func (a *App) loader() *collection.Loader {
	opts := []collection.Option{
		collection.WithLogger(a.logger),
		collection.WithStrict(a.strict),
	}
	if a.db != nil {
		opts = append(opts, collection.WithCache(a.db))
	}
	return collection.NewLoader(a.store, opts...)
}

var errNoIndex = errors.New("no record cache configured (set index.path)")

func (a *App) requireIndex() error {
	if a.db == nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, errNoIndex)
	}
	return nil
}

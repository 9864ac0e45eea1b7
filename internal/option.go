package internal

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	logger     *slog.Logger
	stdout     io.Writer
	collection string
	strict     bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithOutput sets where query results and note text are written.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

// WithCollection selects a configured collection instead of the default one.
func WithCollection(name string) Option {
	return func(a *application) {
		a.collection = name
	}
}

// WithStrict makes malformed notes abort a collection load.
func WithStrict(strict bool) Option {
	return func(a *application) {
		a.strict = a.strict || strict
	}
}

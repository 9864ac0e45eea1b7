// Package collection enumerates a collection's note files and parses them
// into records, reusing the record cache when checksums still match.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Option configures a Loader.
type Option func(*Loader)

// WithCache makes the loader read from and refresh a record cache.
func WithCache(cache index.RecordIndex) Option {
	return func(l *Loader) {
		l.cache = cache
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithStrict makes a malformed file abort the load instead of being skipped.
func WithStrict(strict bool) Option {
	return func(l *Loader) {
		l.strict = strict
	}
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// Loader reads every note of a collection.
type Loader struct {
	store   storage.Provider
	cache   index.RecordIndex
	logger  *slog.Logger
	strict  bool
	workers int
}

// NewLoader creates a loader over store.
func NewLoader(store storage.Provider, opts ...Option) *Loader {
	l := &Loader{
		store:   store,
		logger:  slog.Default(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses the collection and returns its entries sorted by path.
// Malformed files are logged and skipped unless the loader is strict.
func (l *Loader) Load(ctx context.Context) ([]models.Entry, error) {
	metas, err := l.store.List("")
	if err != nil {
		return nil, fmt.Errorf("collection: list: %w", err)
	}

	var cached map[string]models.Entry
	if l.cache != nil {
		if cached, err = l.cache.AllRecords(); err != nil {
			return nil, fmt.Errorf("collection: read cache: %w", err)
		}
	}

	entries := make([]models.Entry, len(metas))
	fresh := make([]bool, len(metas))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, m := range metas {
		if c, ok := cached[m.Path]; ok && c.Checksum == m.Checksum && c.Record != nil {
			entries[i] = c
			continue
		}
		i, m := i, m
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := l.store.Read(m.Path)
			if err != nil {
				return l.skip(m.Path, err)
			}
			rec, err := parser.Parse(data)
			if err != nil {
				return l.skip(m.Path, parser.WithPath(err, m.Path))
			}
			entries[i] = models.Entry{Path: m.Path, Checksum: storage.Checksum(data), Record: rec}
			fresh[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Record != nil {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b models.Entry) int { return strings.Compare(a.Path, b.Path) })

	if l.cache != nil {
		l.refresh(entries, fresh, out)
	}

	l.logger.Debug("load: done", slog.Int("files", len(metas)), slog.Int("records", len(out)))
	return out, nil
}

func (l *Loader) skip(path string, err error) error {
	if l.strict {
		return err
	}
	l.logger.Warn("load: skipped file", slog.String("path", path), slog.String("error", err.Error()))
	return nil
}

// refresh writes freshly parsed records to the cache and prunes entries
// for files that are gone or no longer parse.
func (l *Loader) refresh(entries []models.Entry, fresh []bool, loaded []models.Entry) {
	now := time.Now()
	for i, e := range entries {
		if !fresh[i] {
			continue
		}
		row := index.RecordRow{Path: e.Path, Checksum: e.Checksum, UpdatedAt: now}
		if err := l.cache.UpsertRecord(row, e.Record); err != nil {
			l.logger.Warn("load: cache write failed", slog.String("path", e.Path), slog.String("error", err.Error()))
		}
	}
	present := make(map[string]struct{}, len(loaded))
	for _, e := range loaded {
		present[e.Path] = struct{}{}
	}
	if _, err := index.Prune(l.cache, present, l.logger); err != nil {
		l.logger.Warn("load: cache prune failed", slog.String("error", err.Error()))
	}
}

// Records returns the records of entries in order.
func Records(entries []models.Entry) []*models.Record {
	out := make([]*models.Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out
}

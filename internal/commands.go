package internal

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/format"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/query"
)

const refreshThrottle = 300 * time.Millisecond

// SearchRequest is a query given on the command line, optionally through an alias.
type SearchRequest struct {
	Alias   string
	Params  []string
	Options query.Options
}

// ShowPart selects the part of a note printed by Show.
type ShowPart int

const (
	ShowAll ShowPart = iota
	ShowTags
	ShowAttributes
	ShowContent
)

// Search loads the collection, runs the query and prints the rows.
func (a *App) Search(ctx context.Context, req SearchRequest) error {
	opts := req.Options
	if req.Alias != "" {
		var err error
		if opts, err = query.WithAlias(req.Alias, req.Params, a.config.Aliases, opts); err != nil {
			return err
		}
	}

	entries, err := a.loader().Load(ctx)
	if err != nil {
		return err
	}
	rows, err := query.Run(ctx, collection.Records(entries), opts)
	if err != nil {
		return err
	}
	a.logger.Debug("search: done", slog.Int("records", len(entries)), slog.Int("rows", len(rows)))
	return format.Write(a.stdout, rows, a.config.Output.Separator())
}

// Show prints a note, or one part of it.
func (a *App) Show(ctx context.Context, path string, part ShowPart) error {
	note, err := a.notes.GetNote(ctx, path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(a.stdout)
	switch part {
	case ShowTags:
		for _, t := range note.Tags {
			fmt.Fprintln(w, t)
		}
	case ShowAttributes:
		sep := a.config.Output.Separator()
		for _, attr := range note.Attributes {
			fmt.Fprintln(w, attr.Key+sep+attr.Value)
		}
	case ShowContent:
		fmt.Fprint(w, note.Content)
	default:
		_, _ = w.Write(parser.Format(note.Record))
	}
	return w.Flush()
}

// Edit applies mutations to the note at path in one atomic rewrite.
func (a *App) Edit(ctx context.Context, path string, mutations ...noteservice.Mutation) error {
	note, err := a.notes.EditNote(ctx, path, noteservice.Chain(mutations...))
	if err != nil {
		return err
	}
	a.logger.Info("note updated", slog.String("path", path), slog.String("checksum", note.Checksum))
	return nil
}

// New creates a note at path from rec.
func (a *App) New(ctx context.Context, path string, rec *models.Record) error {
	note, err := a.notes.CreateNote(ctx, path, rec)
	if err != nil {
		return err
	}
	a.logger.Info("note created", slog.String("path", path), slog.String("checksum", note.Checksum))
	return nil
}

// Tags prints every root tag of the collection with its number of notes,
// most used first.
func (a *App) Tags(ctx context.Context) error {
	entries, err := a.loader().Load(ctx)
	if err != nil {
		return err
	}

	var counts []index.TagCount
	if a.db != nil {
		if counts, err = a.db.TagCounts(); err != nil {
			return err
		}
	} else {
		counts = countTags(entries)
	}

	w := bufio.NewWriter(a.stdout)
	sep := a.config.Output.Separator()
	for _, c := range counts {
		fmt.Fprintln(w, c.Tag+sep+strconv.Itoa(c.Count))
	}
	return w.Flush()
}

func countTags(entries []models.Entry) []index.TagCount {
	seen := make(map[string]int)
	for _, e := range entries {
		tags := slices.Clone(e.Record.Tags)
		slices.Sort(tags)
		for _, t := range slices.Compact(tags) {
			seen[t]++
		}
	}
	out := make([]index.TagCount, 0, len(seen))
	for t, n := range seen {
		out = append(out, index.TagCount{Tag: t, Count: n})
	}
	slices.SortFunc(out, func(x, y index.TagCount) int {
		if x.Count != y.Count {
			return y.Count - x.Count
		}
		return strings.Compare(x.Tag, y.Tag)
	})
	return out
}

// Index brings the record cache up to date with the collection.
func (a *App) Index(ctx context.Context) error {
	if err := a.requireIndex(); err != nil {
		return err
	}
	entries, err := a.loader().Load(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("index: synced", slog.String("root", a.store.Root()), slog.Int("records", len(entries)))
	return nil
}

// Watch keeps the record cache current until interrupted. When req is
// non-nil the query is re-run and printed after changes settle.
func (a *App) Watch(ctx context.Context, req *SearchRequest) error {
	if err := a.Index(ctx); err != nil {
		return err
	}
	if req != nil {
		if err := a.Search(ctx, *req); err != nil {
			return err
		}
	}

	broker := events.NewBroker(refreshThrottle)
	defer broker.Close()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	g, gCtx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(gCtx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return index.Watch(ctx, a.db, a.store, a.store.Root(), a.logger, broker.PublishNoteEvent)
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-sub:
				if !ok {
					return nil
				}
				if ev.Kind != events.Refresh {
					a.logger.Info("note changed", slog.String("event", string(ev.Kind)), slog.String("path", ev.Path))
					continue
				}
				if req == nil {
					continue
				}
				if err := a.Search(ctx, *req); err != nil {
					a.logger.Error("watch: search failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-ctx.Done():
		}
		cancel()
		return nil
	})

	return g.Wait()
}

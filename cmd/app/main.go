package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/query"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var userConfig string
	if dir, err := os.UserConfigDir(); err == nil {
		userConfig = filepath.Join(dir, "ansuz", "config.yaml")
	}

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadCascade(cfg, userConfig, configPath); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// run loads the configuration and runs fn against the selected collection.
func run(ctx context.Context, cmd *cli.Command, fn internal.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithCollection(cmd.String("collection")),
		internal.WithStrict(cmd.Bool("strict")),
		internal.WithOutput(cmd.Root().Writer),
	}

	if err := internal.Run(ctx, fn, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func searchRequest(cmd *cli.Command) (internal.SearchRequest, error) {
	req := internal.SearchRequest{
		Options: query.Options{
			Filters: cmd.StringSlice("filter"),
			Limit:   query.ParseLimit(cmd.String("limit")),
		},
	}
	if args := cmd.Args().Slice(); len(args) > 0 {
		req.Alias, req.Params = args[0], args[1:]
	}

	asc, desc := cmd.String("sort-asc"), cmd.String("sort-desc")
	switch {
	case asc != "" && desc != "":
		return req, fmt.Errorf("%w: --sort-asc and --sort-desc are exclusive", query.ErrInvalidOption)
	case asc != "":
		req.Options.Sort = &query.Sort{Field: asc}
	case desc != "":
		req.Options.Sort = &query.Sort{Field: desc, Descending: true}
	}
	return req, nil
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	req, err := searchRequest(cmd)
	if err != nil {
		return err
	}
	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return app.Search(ctx, req)
	})
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	req, err := searchRequest(cmd)
	if err != nil {
		return err
	}
	var reqp *internal.SearchRequest
	if req.Alias != "" || len(req.Options.Filters) > 0 {
		reqp = &req
	}
	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return app.Watch(ctx, reqp)
	})
}

func pathArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", errors.New("exactly one note path is required")
	}
	return cmd.Args().First(), nil
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	path, err := pathArg(cmd)
	if err != nil {
		return err
	}
	part := internal.ShowAll
	switch {
	case cmd.Bool("tags"):
		part = internal.ShowTags
	case cmd.Bool("attributes"):
		part = internal.ShowAttributes
	case cmd.Bool("content"):
		part = internal.ShowContent
	}
	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return app.Show(ctx, path, part)
	})
}

func editAction(ctx context.Context, cmd *cli.Command) error {
	path, err := pathArg(cmd)
	if err != nil {
		return err
	}

	var muts []noteservice.Mutation
	if tags := tagList(cmd.StringSlice("add-tag")); len(tags) > 0 {
		muts = append(muts, noteservice.AddTags(tags...))
	}
	if tags := tagList(cmd.StringSlice("remove-tag")); len(tags) > 0 {
		muts = append(muts, noteservice.RemoveTags(tags...))
	}
	for _, kv := range cmd.StringSlice("add-attr") {
		key, value, err := splitAttr(kv)
		if err != nil {
			return err
		}
		muts = append(muts, noteservice.AddAttribute(key, value))
	}
	for _, kv := range cmd.StringSlice("set-attr") {
		key, value, err := splitAttr(kv)
		if err != nil {
			return err
		}
		muts = append(muts, noteservice.SetAttribute(key, value))
	}
	for _, key := range cmd.StringSlice("remove-attr") {
		muts = append(muts, noteservice.RemoveAttribute(strings.TrimSpace(key)))
	}
	if len(muts) == 0 {
		return errors.New("nothing to edit: use --add-tag, --remove-tag, --add-attr, --set-attr or --remove-attr")
	}

	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return app.Edit(ctx, path, muts...)
	})
}

func newAction(ctx context.Context, cmd *cli.Command) error {
	path, err := pathArg(cmd)
	if err != nil {
		return err
	}

	rec := &models.Record{Content: cmd.String("text")}
	if err := rec.AddTags(tagList(cmd.StringSlice("tag"))...); err != nil {
		return err
	}
	for _, kv := range cmd.StringSlice("attr") {
		key, value, err := splitAttr(kv)
		if err != nil {
			return err
		}
		if err := rec.AddAttribute(key, value); err != nil {
			return err
		}
	}
	if rec.Content != "" && !strings.HasSuffix(rec.Content, "\n") {
		rec.Content += "\n"
	}

	return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return app.New(ctx, path, rec)
	})
}

// tagList accepts tags written with or without the leading '@'.
func tagList(raw []string) []string {
	var out []string
	for _, r := range raw {
		out = append(out, strings.TrimPrefix(strings.TrimSpace(r), "@"))
	}
	return out
}

func splitAttr(kv string) (string, string, error) {
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		return "", "", fmt.Errorf("attribute %q: expected KEY=VALUE", kv)
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), nil
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "Filter `\"fields [WHERE expr]\"`; repeated filters are ANDed",
		},
		&cli.StringFlag{
			Name:  "limit",
			Usage: "Print at most `N` rows; values below 1 mean no limit",
		},
		&cli.StringFlag{
			Name:    "sort-asc",
			Aliases: []string{"sort-a"},
			Usage:   "Sort rows ascending by `FIELD`",
		},
		&cli.StringFlag{
			Name:    "sort-desc",
			Aliases: []string{"sort-d"},
			Usage:   "Sort rows descending by `FIELD`",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Fail on malformed notes instead of skipping them",
		},
	}
}

// newApp builds the command tree. Comma splitting of slice flags is off on
// every command, since each command's setup resets the setting.
func newApp() *cli.Command {
	app := &cli.Command{
		Name:                      "ansuz",
		Usage:                     "Query and edit plain-text notes with structured headers",
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"C"},
				Usage:   "Configured collection to use instead of the default one",
				Sources: cli.EnvVars("APP_COLLECTION"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a query, optionally through an alias",
				ArgsUsage: "[alias [params...]]",
				Flags:     queryFlags(),
				Action:    searchAction,
			},
			{
				Name:      "show",
				Usage:     "Print a note or one of its parts",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "tags", Usage: "Print the tags only"},
					&cli.BoolFlag{Name: "attributes", Usage: "Print the attributes only"},
					&cli.BoolFlag{Name: "content", Usage: "Print the content only"},
				},
				Action: showAction,
			},
			{
				Name:      "edit",
				Usage:     "Add or remove tags and attributes of a note",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "add-tag", Usage: "Add `TAG`"},
					&cli.StringSliceFlag{Name: "remove-tag", Usage: "Remove `TAG`"},
					&cli.StringSliceFlag{Name: "add-attr", Usage: "Add attribute `KEY=VALUE`"},
					&cli.StringSliceFlag{Name: "set-attr", Usage: "Replace every attribute named KEY with `KEY=VALUE`"},
					&cli.StringSliceFlag{Name: "remove-attr", Usage: "Remove every attribute named `KEY`"},
				},
				Action: editAction,
			},
			{
				Name:      "new",
				Usage:     "Create a note",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "tag", Usage: "Tag the note with `TAG`"},
					&cli.StringSliceFlag{Name: "attr", Usage: "Add attribute `KEY=VALUE`"},
					&cli.StringFlag{Name: "text", Usage: "Note content"},
				},
				Action: newAction,
			},
			{
				Name:  "tags",
				Usage: "List root tags with the number of notes carrying them",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
						return app.Tags(ctx)
					})
				},
			},
			{
				Name:  "index",
				Usage: "Bring the record cache up to date",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, cmd, func(ctx context.Context, app *internal.App) error {
						return app.Index(ctx)
					})
				},
			},
			{
				Name:      "watch",
				Usage:     "Keep the record cache current, re-running a query on every change",
				ArgsUsage: "[alias [params...]]",
				Flags:     queryFlags(),
				Action:    watchAction,
			},
		},
	}
	for _, sub := range app.Commands {
		sub.DisableSliceFlagSeparator = true
	}
	return app
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/alias"
	"github.com/starford/ansuz/internal/filter"
	"github.com/starford/ansuz/internal/format"
	"github.com/starford/ansuz/internal/query"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Collections CollectionsConfig `yaml:"collections"`
	Index       IndexConfig       `yaml:"index"`
	Output      OutputConfig      `yaml:"output"`
	Aliases     alias.Table       `yaml:"aliases"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Collections.Validate(); err != nil {
		return fmt.Errorf("collections: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return validateAliases(c.Aliases)
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// CollectionsConfig names the note collections and selects their files.
type CollectionsConfig struct {
	Default string            `yaml:"default"`
	Include string            `yaml:"include"`
	Strict  bool              `yaml:"strict"`
	Paths   map[string]string `yaml:"paths"`
}

// Validate validates the collections configuration.
func (c *CollectionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Default, validation.Required, validation.By(func(any) error {
			if _, ok := c.Paths[c.Default]; !ok {
				return fmt.Errorf("collection %q has no path", c.Default)
			}
			return nil
		})),
		validation.Field(&c.Include, validation.By(func(any) error {
			if c.Include != "" && !doublestar.ValidatePattern(c.Include) {
				return fmt.Errorf("invalid include pattern %q", c.Include)
			}
			return nil
		})),
		validation.Field(&c.Paths, validation.Required, validation.Each(validation.Required)),
	)
}

// Path returns the directory of the named collection; an empty name
// selects the default collection.
func (c *CollectionsConfig) Path(name string) (string, error) {
	if name == "" {
		name = c.Default
	}
	p, ok := c.Paths[name]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", name)
	}
	return filepath.Clean(p), nil
}

// IndexConfig holds the optional SQLite record cache.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether a cache file is configured.
func (c *IndexConfig) Enabled() bool {
	return c.Path != ""
}

// OutputConfig controls how query rows are printed.
type OutputConfig struct {
	FieldSeparator string `yaml:"field_separator"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.FieldSeparator, validation.By(func(any) error {
			_, err := format.ParseSeparator(c.FieldSeparator)
			return err
		})),
	)
}

// Separator returns the decoded field separator.
func (c *OutputConfig) Separator() string {
	sep, err := format.ParseSeparator(c.FieldSeparator)
	if err != nil {
		return format.DefaultSeparator
	}
	return sep
}

// validateAliases checks that every alias names known aliases and carries
// well-formed options. Filters without placeholders are parsed as well.
func validateAliases(table alias.Table) error {
	var errs []error
	for name, tmpl := range table {
		if strings.TrimSpace(tmpl) == "" {
			errs = append(errs, fmt.Errorf("alias %q: empty template", name))
			continue
		}
		lead, args := alias.Split(tmpl)
		if len(lead) > 0 {
			if _, ok := table[lead[0]]; !ok {
				errs = append(errs, fmt.Errorf("alias %q: %w: %s", name, alias.ErrAliasNotFound, lead[0]))
			}
		}
		opts, err := query.ParseArgs(args)
		if err != nil {
			errs = append(errs, fmt.Errorf("alias %q: %w", name, err))
			continue
		}
		for _, f := range opts.Filters {
			if strings.Contains(f, "$") {
				continue
			}
			if _, err := filter.Parse(f); err != nil {
				errs = append(errs, fmt.Errorf("alias %q: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelWarn,
		},
		Collections: CollectionsConfig{
			Default: "notes",
			Include: "**/*",
			Paths: map[string]string{
				"notes": "./notes",
			},
		},
		Output: OutputConfig{
			FieldSeparator: "' | '",
		},
		Aliases: alias.Table{},
	}
}

package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/alias"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestCollectionsConfig_DefaultMustHavePath(t *testing.T) {
	cfg := CollectionsConfig{Default: "contacts", Paths: map[string]string{"notes": "./notes"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("unknown default collection should fail")
	}
	if !strings.Contains(err.Error(), `"contacts" has no path`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCollectionsConfig_InvalidInclude(t *testing.T) {
	cfg := CollectionsConfig{Default: "a", Include: "[", Paths: map[string]string{"a": "."}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid include pattern should fail")
	}
}

func TestCollectionsConfig_Path(t *testing.T) {
	cfg := CollectionsConfig{Default: "a", Paths: map[string]string{"a": "./x/", "b": "y"}}
	if p, err := cfg.Path(""); err != nil || p != "x" {
		t.Errorf("Path(\"\") = %q, %v, want %q", p, err, "x")
	}
	if p, err := cfg.Path("b"); err != nil || p != "y" {
		t.Errorf("Path(b) = %q, %v, want %q", p, err, "y")
	}
	if _, err := cfg.Path("c"); err == nil {
		t.Error("unknown collection should fail")
	}
}

func TestOutputConfig_Separator(t *testing.T) {
	cases := map[string]string{
		"":         " | ",
		"','":      ",",
		"{TAB}":    "\t",
		`"→"`: "→",
	}
	for raw, want := range cases {
		cfg := OutputConfig{FieldSeparator: raw}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate(%q): %v", raw, err)
			continue
		}
		if got := cfg.Separator(); got != want {
			t.Errorf("Separator(%q) = %q, want %q", raw, got, want)
		}
	}

	bad := OutputConfig{FieldSeparator: "ab"}
	if err := bad.Validate(); err == nil {
		t.Error("unquoted multi-character separator should fail")
	}
}

func TestValidateAliases(t *testing.T) {
	good := alias.Table{
		"find":   "--filter 'Name' WHERE Name = '$0'",
		"phones": "--filter Name,Phone WHERE Phone NOT EMPTY --sort-asc Name",
		"first":  "find $0 --limit 1",
	}
	if err := validateAliases(good); err != nil {
		t.Fatalf("valid aliases rejected: %v", err)
	}

	cases := map[string]alias.Table{
		"unknown nested": {"a": "missing --limit 1"},
		"bad option":     {"a": "--frobnicate x"},
		"bad filter":     {"a": "--filter Name WHERE"},
		"empty":          {"a": "  "},
	}
	for name, table := range cases {
		if err := validateAliases(table); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	err := validateAliases(alias.Table{"a": "missing"})
	if !errors.Is(err, alias.ErrAliasNotFound) {
		t.Errorf("err = %v, want ErrAliasNotFound", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("ANSUZ_TEST_NOTES", "/srv/notes")
	data := `
app:
  log_level: debug
collections:
  default: contacts
  paths:
    contacts: ${ANSUZ_TEST_NOTES}
output:
  field_separator: "'{TAB}'"
aliases:
  find: "--filter Name WHERE Name = '$0'"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p, _ := cfg.Collections.Path(""); p != "/srv/notes" {
		t.Errorf("collection path = %q, want %q", p, "/srv/notes")
	}
	if cfg.Collections.Include != "**/*" {
		t.Errorf("include = %q, want default kept", cfg.Collections.Include)
	}
	if got := cfg.Output.Separator(); got != "\t" {
		t.Errorf("separator = %q, want tab", got)
	}
	if got := cfg.Aliases["find"]; got != "--filter Name WHERE Name = '$0'" {
		t.Errorf("alias = %q", got)
	}
}

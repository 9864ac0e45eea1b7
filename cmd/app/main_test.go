package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/testutil"
)

func writeConfig(t *testing.T, notes string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	text := "collections:\n" +
		"  default: notes\n" +
		"  paths:\n" +
		"    notes: " + notes + "\n" +
		"aliases:\n" +
		"  find: \"--filter 'Name,Phone' WHERE Name = '$0'\"\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(context.Background(), append([]string{"ansuz"}, args...))
	return out.String(), err
}

func TestSearch_FilterKeepsCommas(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteNote(t, dir, "bob", "[Name: Bob]\n[Phone: 1]\n")
	testutil.WriteNote(t, dir, "ann", "[Name: Ann]\n[Phone: 2]\n")
	cfg := writeConfig(t, dir)

	out, err := runCLI(t, "--config", cfg, "search", "--filter", "Name,Phone WHERE Name = 'Ann'")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if want := "Ann | 2\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	out, err = runCLI(t, "--config", cfg, "search", "--sort-desc", "Name", "find", "Bob")
	if err != nil {
		t.Fatalf("search alias: %v", err)
	}
	if want := "Bob | 1\n"; out != want {
		t.Errorf("alias output = %q, want %q", out, want)
	}
}

func TestEdit_AttributeValueWithComma(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteNote(t, dir, "bob", "[Name: Bob]\n")
	cfg := writeConfig(t, dir)

	if _, err := runCLI(t, "--config", cfg, "edit", "--add-attr", "Kids=Ann, Ben", "--add-tag", "friend", "bob"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "bob"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "@friend\n[Name: Bob]\n[Kids: Ann, Ben]\n"; string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestNew_AttributeValueWithComma(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	if _, err := runCLI(t, "--config", cfg, "new", "--attr", "Address=1 Main St, Springfield", "--text", "hi", "ann"); err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := runCLI(t, "--config", cfg, "show", "--attributes", "ann")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Address | 1 Main St, Springfield\n") {
		t.Errorf("show output = %q", out)
	}
}

func TestEdit_RequiresMutation(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteNote(t, dir, "bob", "[Name: Bob]\n")

	if _, err := runCLI(t, "--config", writeConfig(t, dir), "edit", "bob"); err == nil {
		t.Error("edit without flags should fail")
	}
}

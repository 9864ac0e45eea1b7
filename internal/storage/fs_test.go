package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func tempCollection(t *testing.T, include string) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, include)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempCollection(t, "")
	content := []byte("@contact\n[Name: Bob]\n")
	if err := s.Write("bob", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("bob")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempCollection(t, "")
	if err := s.Write("a/b/c", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestExists(t *testing.T) {
	s := tempCollection(t, "")
	_ = s.Write("here", []byte("x"))
	if ok, err := s.Exists("here"); err != nil || !ok {
		t.Errorf("Exists(here) = %v, %v, want true", ok, err)
	}
	if ok, err := s.Exists("missing"); err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v, want false", ok, err)
	}
	_ = os.MkdirAll(filepath.Join(s.Root(), "dir"), 0o755)
	if ok, _ := s.Exists("dir"); ok {
		t.Error("a directory is not a note")
	}
}

func TestList(t *testing.T) {
	s := tempCollection(t, "")
	_ = s.Write("a", []byte("a"))
	_ = s.Write("sub/b", []byte("b"))
	_ = s.Write(".hidden", []byte("h"))
	_ = s.Write(".git/config", []byte("g"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
		if it.Checksum != Checksum([]byte(filepath.Base(it.Path))) {
			t.Errorf("checksum mismatch for %s", it.Path)
		}
	}
	sort.Strings(paths)
	if len(paths) != 2 || paths[0] != "a" || paths[1] != "sub/b" {
		t.Errorf("paths = %v, want [a sub/b]", paths)
	}
}

func TestList_IncludePattern(t *testing.T) {
	s := tempCollection(t, "**/*.note")
	_ = s.Write("bob.note", []byte("x"))
	_ = s.Write("team/ann.note", []byte("y"))
	_ = s.Write("readme.txt", []byte("z"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
	if s.Matches("readme.txt") || !s.Matches("team/ann.note") {
		t.Error("Matches disagrees with include pattern")
	}
}

func TestNewFS_InvalidPattern(t *testing.T) {
	if _, err := NewFS(t.TempDir(), "[unclosed"); err == nil {
		t.Error("expected error for invalid include pattern")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempCollection(t, "")

	cases := []string{
		"../../etc/passwd",
		"../outside",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempCollection(t, "")
	_ = s.Write("atomic", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tempPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/ansuz-does-not-exist-"+t.Name(), "")
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "ansuz-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name(), "")
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

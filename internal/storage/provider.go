// Package storage defines the collection file-system abstraction.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for note file operations. Paths are relative
// to the collection root and use forward slashes.
type Provider interface {
	// List returns metadata for every note file under dir that matches the include pattern.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// Matches reports whether path is a note file of the collection.
	Matches(path string) bool
}

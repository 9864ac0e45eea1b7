package models

import "time"

// FileMetadata is a lightweight representation of a note file returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is a parsed note together with the file it came from.
type Entry struct {
	Path     string  `json:"path"`
	Checksum string  `json:"checksum"`
	Record   *Record `json:"record"`
}

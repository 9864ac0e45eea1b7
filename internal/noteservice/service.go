// Package noteservice reads and rewrites single notes of a collection.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path       string             `json:"path"`
	Checksum   string             `json:"checksum"`
	Tags       []string           `json:"tags"`
	Attributes []models.Attribute `json:"attributes"`
	Content    string             `json:"content"`
	Record     *models.Record     `json:"-"`
}

// Mutation changes a record in place. Returning an error aborts the edit
// and leaves the file untouched.
type Mutation func(*models.Record) error

// Service coordinates storage and the optional record cache.
type Service struct {
	store storage.Provider
	db    index.RecordIndex
}

// NewService creates a new note service. db may be nil.
func NewService(store storage.Provider, db index.RecordIndex) *Service {
	return &Service{store: store, db: db}
}

// GetNote reads and parses the note at path.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	rec, err := s.parse(path, data)
	if err != nil {
		return nil, err
	}
	return buildNoteDetail(path, data, rec), nil
}

// CreateNote writes rec as a new note. It fails with ErrAlreadyExists when
// a file is present at path.
func (s *Service) CreateNote(_ context.Context, path string, rec *models.Record) (*NoteDetail, error) {
	exists, err := s.store.Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("noteservice: create %s: %w", path, apperr.ErrAlreadyExists)
	}
	return s.write(path, rec)
}

// EditNote applies mutate to the note at path and re-serializes the whole
// record atomically. A failed mutation or a malformed note leaves the file
// as it was.
func (s *Service) EditNote(_ context.Context, path string, mutate Mutation) (*NoteDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	rec, err := s.parse(path, data)
	if err != nil {
		return nil, err
	}
	next := rec.Clone()
	if err := mutate(next); err != nil {
		return nil, fmt.Errorf("noteservice: edit %s: %w", path, err)
	}
	return s.write(path, next)
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// parse returns the cached record when its checksum matches data and
// parses data otherwise.
func (s *Service) parse(path string, data []byte) (*models.Record, error) {
	if s.db != nil {
		entry, err := s.db.GetRecord(path)
		if err == nil && entry.Checksum == storage.Checksum(data) {
			return entry.Record, nil
		}
	}
	rec, err := parser.Parse(data)
	if err != nil {
		return nil, parser.WithPath(err, path)
	}
	return rec, nil
}

func (s *Service) write(path string, rec *models.Record) (*NoteDetail, error) {
	data := parser.Format(rec)
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if s.db != nil {
		row := index.RecordRow{Path: path, Checksum: storage.Checksum(data), UpdatedAt: time.Now()}
		if err := s.db.UpsertRecord(row, rec); err != nil {
			return nil, err
		}
	}
	return buildNoteDetail(path, data, rec), nil
}

// AddTags returns a mutation adding tags to the root record.
func AddTags(tags ...string) Mutation {
	return func(r *models.Record) error { return r.AddTags(tags...) }
}

// RemoveTags returns a mutation removing tags from the root record.
func RemoveTags(tags ...string) Mutation {
	return func(r *models.Record) error {
		r.RemoveTags(tags...)
		return nil
	}
}

// AddAttribute returns a mutation appending an attribute.
func AddAttribute(key, value string) Mutation {
	return func(r *models.Record) error { return r.AddAttribute(key, value) }
}

// SetAttribute returns a mutation giving key a single value.
func SetAttribute(key, value string) Mutation {
	return func(r *models.Record) error { return r.SetAttribute(key, value) }
}

// RemoveAttribute returns a mutation removing every attribute named key.
func RemoveAttribute(key string) Mutation {
	return func(r *models.Record) error {
		r.RemoveAttribute(key)
		return nil
	}
}

// Chain applies mutations in order, stopping at the first error.
func Chain(ms ...Mutation) Mutation {
	return func(r *models.Record) error {
		for _, m := range ms {
			if err := m(r); err != nil {
				return err
			}
		}
		return nil
	}
}

func buildNoteDetail(path string, data []byte, rec *models.Record) *NoteDetail {
	return &NoteDetail{
		Path:       path,
		Checksum:   storage.Checksum(data),
		Tags:       nonNilSlice(rec.Tags),
		Attributes: nonNilSlice(rec.Attributes),
		Content:    rec.Content,
		Record:     rec,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

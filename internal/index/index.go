package index

import "github.com/starford/ansuz/internal/models"

// RecordIndex is the record cache used by loaders, the watcher and the
// note service.
type RecordIndex interface {
	UpsertRecord(row RecordRow, rec *models.Record) error
	DeleteRecord(path string) error
	GetChecksum(path string) (string, error)
	GetRecord(path string) (*models.Entry, error)
	AllChecksums() (map[string]string, error)
	AllRecords() (map[string]models.Entry, error)
	TagCounts() ([]TagCount, error)
	Close() error
}

// Verify *DB satisfies RecordIndex at compile time.
var _ RecordIndex = (*DB)(nil)

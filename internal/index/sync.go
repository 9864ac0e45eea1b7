package index

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// IndexFile parses data and upserts the resulting record under path.
func IndexFile(db RecordIndex, path string, data []byte) (*models.Record, error) {
	rec, err := parser.Parse(data)
	if err != nil {
		return nil, parser.WithPath(err, path)
	}
	row := RecordRow{
		Path:      path,
		Checksum:  storage.Checksum(data),
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertRecord(row, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Prune deletes cached records whose path is not in present and returns
// the removed paths.
func Prune(db RecordIndex, present map[string]struct{}, logger *slog.Logger) ([]string, error) {
	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, err
	}
	var removed []string
	for p := range checksums {
		if _, ok := present[p]; ok {
			continue
		}
		if err := db.DeleteRecord(p); err != nil {
			logger.Warn("prune: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("prune: removed stale", slog.String("path", p))
		removed = append(removed, p)
	}
	return removed, nil
}

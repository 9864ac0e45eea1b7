package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// RecordRow is the file-level metadata stored with a cached record.
type RecordRow struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// TagCount is the number of records carrying a root-level tag.
type TagCount struct {
	Tag   string
	Count int
}

// UpsertRecord inserts or replaces a record and its tags within a transaction.
func (db *DB) UpsertRecord(row RecordRow, rec *models.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("index: encode record: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO records (path, checksum, record, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			record     = excluded.record,
			updated_at = excluded.updated_at
	`, row.Path, row.Checksum, string(data), row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert record: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tags WHERE path = ?`, row.Path); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	if len(rec.Tags) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO tags (path, tag) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for _, tag := range rec.Tags {
			if _, err := stmt.Exec(row.Path, tag); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteRecord removes a record and its tags.
func (db *DB) DeleteRecord(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM tags WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete tags: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete record: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a record, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM records WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetRecord returns the cached record at path, or apperr.ErrNotFound.
func (db *DB) GetRecord(path string) (*models.Entry, error) {
	var cs, data string
	err := db.conn.QueryRow(`SELECT checksum, record FROM records WHERE path = ?`, path).Scan(&cs, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: record %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get record: %w", err)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return &models.Entry{Path: path, Checksum: cs, Record: rec}, nil
}

// AllChecksums returns path → checksum for every cached record.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM records`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AllRecords returns every cached record keyed by path.
func (db *DB) AllRecords() (map[string]models.Entry, error) {
	rows, err := db.conn.Query(`SELECT path, checksum, record FROM records`)
	if err != nil {
		return nil, fmt.Errorf("index: all records: %w", err)
	}
	defer rows.Close()
	out := make(map[string]models.Entry)
	for rows.Next() {
		var p, cs, data string
		if err := rows.Scan(&p, &cs, &data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out[p] = models.Entry{Path: p, Checksum: cs, Record: rec}
	}
	return out, rows.Err()
}

// TagCounts returns how many records carry each tag, most used first.
func (db *DB) TagCounts() ([]TagCount, error) {
	rows, err := db.conn.Query(`SELECT tag, COUNT(*) AS n FROM tags GROUP BY tag ORDER BY n DESC, tag ASC`)
	if err != nil {
		return nil, fmt.Errorf("index: tag counts: %w", err)
	}
	defer rows.Close()
	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func decodeRecord(data string) (*models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("index: decode record: %w", err)
	}
	return &rec, nil
}

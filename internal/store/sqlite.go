package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilupskalvis/cfgmerge/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new store connection
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(1000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Initialize brings the schema up to date
func (s *SQLiteStore) Initialize() error {
	return s.RunMigrations()
}

// SaveMerge stores a new record
func (s *SQLiteStore) SaveMerge(rec *models.MergeRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal merge record: %w", err)
	}

	var exists int
	err = s.db.QueryRow("SELECT COUNT(*) FROM merges WHERE id = ?", rec.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrExists, rec.ShortID())
	}

	_, err = s.db.Exec(`
		INSERT INTO merges (id, created_at, base, local, remote, output, strategy, conflicts, resolved, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixNano(), rec.Base, rec.Local, rec.Remote,
		sql.NullString{String: rec.Output, Valid: rec.Output != ""},
		string(rec.Strategy), rec.Stats.Conflicts, rec.ResolvedConflicts, string(data),
	)
	return err
}

// GetMerge retrieves a record by ID or unique ID prefix
func (s *SQLiteStore) GetMerge(idOrPrefix string) (*models.MergeRecord, error) {
	if !validPrefix(idOrPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, idOrPrefix)
	}

	rows, err := s.db.Query("SELECT record FROM merges WHERE id LIKE ? LIMIT 2", idOrPrefix+"%")
	if err != nil {
		return nil, err
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return records[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, idOrPrefix)
	}
}

// ListMerges returns records in reverse chronological order
func (s *SQLiteStore) ListMerges(limit int) ([]*models.MergeRecord, error) {
	query := "SELECT record FROM merges ORDER BY created_at DESC, id DESC"

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*models.MergeRecord, error) {
	defer rows.Close()

	var records []*models.MergeRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec models.MergeRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal merge record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

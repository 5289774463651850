package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const currentSchemaVersion = 2

// RunMigrations applies any pending database migrations
func (s *SQLiteStore) RunMigrations() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema v%d is newer than this cfgmerge supports (v%d)", version, currentSchemaVersion)
	}

	if version < 1 {
		if err := s.migrateToV1(); err != nil {
			return fmt.Errorf("migration to v1 failed: %w", err)
		}
	}

	if version < 2 {
		if err := s.migrateToV2(); err != nil {
			return fmt.Errorf("migration to v2 failed: %w", err)
		}
	}

	return nil
}

// getSchemaVersion returns the current schema version, 0 for an empty database
func (s *SQLiteStore) getSchemaVersion() (int, error) {
	var tableName string
	err := s.db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='cfgmerge_schema_version'
	`).Scan(&tableName)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM cfgmerge_schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

func (s *SQLiteStore) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT OR REPLACE INTO cfgmerge_schema_version (version) VALUES (?)", version)
	return err
}

// migrate runs statements and records the version in one transaction
func (s *SQLiteStore) migrate(version int, statements []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if err := s.setSchemaVersion(tx, version); err != nil {
		return err
	}
	return tx.Commit()
}

// migrateToV1 creates the merge history table
func (s *SQLiteStore) migrateToV1() error {
	return s.migrate(1, []string{
		`CREATE TABLE IF NOT EXISTS cfgmerge_schema_version (
			version INTEGER PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS merges (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			base TEXT NOT NULL,
			local TEXT NOT NULL,
			remote TEXT NOT NULL,
			strategy TEXT NOT NULL,
			conflicts INTEGER NOT NULL DEFAULT 0,
			record JSON NOT NULL
		)`,
	})
}

// migrateToV2 records where merged output went and how many conflicts a
// strategy resolved, and indexes history by time
func (s *SQLiteStore) migrateToV2() error {
	return s.migrate(2, []string{
		`ALTER TABLE merges ADD COLUMN output TEXT`,
		`ALTER TABLE merges ADD COLUMN resolved INTEGER NOT NULL DEFAULT 0`,
		`CREATE INDEX IF NOT EXISTS idx_merges_created_at ON merges(created_at)`,
	})
}

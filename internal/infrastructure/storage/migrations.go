package storage

import (
	"database/sql"
	"fmt"
)

// Migration represents a database schema migration.
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order.
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "reconciliation_items",
		Up:      migration001ReconciliationItems,
	},
	{
		Version: 2,
		Name:    "reference_records",
		Up:      migration002ReferenceRecords,
	},
	{
		Version: 3,
		Name:    "audit_entries",
		Up:      migration003AuditEntries,
	},
	{
		Version: 4,
		Name:    "reconciliation_runs",
		Up:      migration004ReconciliationRuns,
	},
}

// runMigrations executes all pending migrations.
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, m := range allMigrations {
		if applied[m.Version] {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			m.Version, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *Storage) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func migration001ReconciliationItems(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE reconciliation_items (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL UNIQUE,
		account_id TEXT NOT NULL,
		family TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		transaction_date TIMESTAMP NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		confidence_ratio REAL,
		matched_record_id TEXT,
		matched_kind TEXT,
		verification_date TIMESTAMP,
		verified_by TEXT NOT NULL DEFAULT '',
		observations TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX idx_items_family_status ON reconciliation_items(family, status)`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX idx_items_account ON reconciliation_items(account_id)`)
	return err
}

func migration002ReferenceRecords(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE reference_records (
		id TEXT NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL,
		amount TEXT NOT NULL,
		relevant_date TIMESTAMP NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	)`)
	return err
}

func migration003AuditEntries(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE audit_entries (
		id TEXT PRIMARY KEY,
		at TIMESTAMP NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX idx_audit_entity ON audit_entries(entity_type, entity_id)`)
	return err
}

func migration004ReconciliationRuns(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE reconciliation_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		family TEXT NOT NULL,
		account_id TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		transaction_count INTEGER NOT NULL DEFAULT 0,
		items_created INTEGER NOT NULL DEFAULT 0,
		auto_matched INTEGER NOT NULL DEFAULT 0,
		needs_review INTEGER NOT NULL DEFAULT 0,
		unknown_count INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'running'
	)`)
	return err
}

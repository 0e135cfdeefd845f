package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
)

// Storage provides SQLite database access. It implements Repository.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance backed by SQLite.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

const itemColumns = `id, transaction_id, account_id, family, category, status,
	transaction_date, amount, description, confidence_ratio, matched_record_id,
	matched_kind, verification_date, verified_by, observations, created_at, updated_at`

// SaveItem inserts or updates a reconciliation item.
func (s *Storage) SaveItem(item *treasury.ReconciliationItem) error {
	query := `
	INSERT OR REPLACE INTO reconciliation_items
	(` + itemColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var (
		confidence    sql.NullFloat64
		matchedID     sql.NullString
		matchedKind   sql.NullString
		verifiedAt    sql.NullTime
	)
	if item.ConfidenceRatio != nil {
		confidence = sql.NullFloat64{Float64: *item.ConfidenceRatio, Valid: true}
	}
	if item.Matched != nil {
		matchedID = sql.NullString{String: item.Matched.RecordID, Valid: true}
		matchedKind = sql.NullString{String: string(item.Matched.Kind), Valid: true}
	}
	if item.VerificationDate != nil {
		verifiedAt = sql.NullTime{Time: *item.VerificationDate, Valid: true}
	}

	_, err := s.db.Exec(query,
		item.ID,
		item.TransactionID,
		item.AccountID,
		string(item.Family),
		item.Category,
		string(item.Status),
		item.TransactionDate,
		item.Amount.String(),
		item.Description,
		confidence,
		matchedID,
		matchedKind,
		verifiedAt,
		item.VerifiedBy,
		item.Observations,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.ID, err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (s *Storage) GetItem(id string) (*treasury.ReconciliationItem, error) {
	row := s.db.QueryRow(
		`SELECT `+itemColumns+` FROM reconciliation_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, treasury.ErrItemNotFound
	}
	return item, err
}

// GetItemByTransaction retrieves the item extracted from a transaction.
func (s *Storage) GetItemByTransaction(transactionID string) (*treasury.ReconciliationItem, error) {
	row := s.db.QueryRow(
		`SELECT `+itemColumns+` FROM reconciliation_items WHERE transaction_id = ?`, transactionID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, treasury.ErrItemNotFound
	}
	return item, err
}

// ListItems returns items matching the filters, newest transaction first.
func (s *Storage) ListItems(filters ItemFilters) ([]*treasury.ReconciliationItem, error) {
	query := `SELECT ` + itemColumns + ` FROM reconciliation_items WHERE 1=1`
	args := []any{}

	if filters.Family != "" {
		query += " AND family = ?"
		args = append(args, string(filters.Family))
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filters.Status))
	}
	if filters.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filters.AccountID)
	}
	if !filters.From.IsZero() {
		query += " AND transaction_date >= ?"
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		query += " AND transaction_date <= ?"
		args = append(args, filters.To)
	}

	query += " ORDER BY transaction_date DESC, id ASC"

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*treasury.ReconciliationItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetSummary computes the aggregate projection for a family.
func (s *Storage) GetSummary(family treasury.Family) (*Summary, error) {
	rows, err := s.db.Query(
		`SELECT `+itemColumns+` FROM reconciliation_items WHERE family = ?`, string(family))
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	summary := NewSummary(family)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		summary.Accumulate(item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	summary.Finalize()
	return summary, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*treasury.ReconciliationItem, error) {
	var (
		item        treasury.ReconciliationItem
		family      string
		status      string
		amount      string
		confidence  sql.NullFloat64
		matchedID   sql.NullString
		matchedKind sql.NullString
		verifiedAt  sql.NullTime
	)

	err := sc.Scan(
		&item.ID,
		&item.TransactionID,
		&item.AccountID,
		&family,
		&item.Category,
		&status,
		&item.TransactionDate,
		&amount,
		&item.Description,
		&confidence,
		&matchedID,
		&matchedKind,
		&verifiedAt,
		&item.VerifiedBy,
		&item.Observations,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Family = treasury.Family(family)
	item.Status = treasury.Status(status)
	item.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for item %s: %w", item.ID, err)
	}
	if confidence.Valid {
		item.ConfidenceRatio = &confidence.Float64
	}
	if matchedID.Valid {
		item.Matched = &treasury.MatchedEntity{
			RecordID: matchedID.String,
			Kind:     treasury.RecordKind(matchedKind.String),
		}
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		item.VerificationDate = &t
	}

	return &item, nil
}

// UpsertCandidate stores a reference record.
func (s *Storage) UpsertCandidate(record treasury.ReferenceRecord) error {
	payload, err := encodeRecord(record)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
	INSERT OR REPLACE INTO reference_records
	(id, kind, label, amount, relevant_date, payload)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.RecordID(),
		string(record.Kind()),
		record.Label(),
		record.Amount().String(),
		record.RelevantDate(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s record %s: %w", record.Kind(), record.RecordID(), err)
	}
	return nil
}

// GetCandidates returns all reference records of a kind.
func (s *Storage) GetCandidates(kind treasury.RecordKind) ([]treasury.ReferenceRecord, error) {
	rows, err := s.db.Query(
		`SELECT kind, payload FROM reference_records WHERE kind = ? ORDER BY id ASC`,
		string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s candidates: %w", kind, err)
	}
	defer rows.Close()

	var records []treasury.ReferenceRecord
	for rows.Next() {
		var k, payload string
		if err := rows.Scan(&k, &payload); err != nil {
			return nil, err
		}
		record, err := DecodeRecord(treasury.RecordKind(k), payload)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetCandidate retrieves one reference record.
func (s *Storage) GetCandidate(kind treasury.RecordKind, id string) (treasury.ReferenceRecord, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM reference_records WHERE kind = ? AND id = ?`,
		string(kind), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, treasury.ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s record %s: %w", kind, id, err)
	}
	return DecodeRecord(kind, payload)
}

// AppendAudit stores one audit entry.
func (s *Storage) AppendAudit(entry events.AuditEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}

	_, err = s.db.Exec(`
	INSERT INTO audit_entries (id, at, actor, action, entity_type, entity_id, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.At, entry.Actor, entry.Action, entry.EntityType, entry.EntityID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAuditByEntity returns the audit trail for one entity, oldest first.
func (s *Storage) ListAuditByEntity(entityType, entityID string) ([]events.AuditEntry, error) {
	rows, err := s.db.Query(`
	SELECT id, at, actor, action, entity_type, entity_id, payload
	FROM audit_entries WHERE entity_type = ? AND entity_id = ? ORDER BY at ASC
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []events.AuditEntry
	for rows.Next() {
		var (
			entry   events.AuditEntry
			payload string
		)
		if err := rows.Scan(&entry.ID, &entry.At, &entry.Actor, &entry.Action,
			&entry.EntityType, &entry.EntityID, &payload); err != nil {
			return nil, err
		}
		if payload != "" && payload != "null" {
			if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
				return nil, fmt.Errorf("corrupt audit payload %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// StartRun records the start of an extraction run.
func (s *Storage) StartRun(family treasury.Family, accountID string, transactionCount int) (int64, error) {
	result, err := s.db.Exec(`
	INSERT INTO reconciliation_runs (family, account_id, started_at, transaction_count, status)
	VALUES (?, ?, ?, ?, 'running')
	`, string(family), accountID, time.Now().UTC(), transactionCount)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return result.LastInsertId()
}

// CompleteRun records a run's outcome counts.
func (s *Storage) CompleteRun(runID int64, counts RunCounts) error {
	_, err := s.db.Exec(`
	UPDATE reconciliation_runs
	SET completed_at = ?, items_created = ?, auto_matched = ?, needs_review = ?,
	    unknown_count = ?, skipped = ?, status = 'completed'
	WHERE id = ?
	`, time.Now().UTC(), counts.ItemsCreated, counts.AutoMatched, counts.NeedsReview,
		counts.Unknown, counts.Skipped, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run %d: %w", runID, err)
	}
	return nil
}

// ListRuns returns recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]ReconciliationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
	SELECT id, family, account_id, started_at, completed_at, transaction_count,
	       items_created, auto_matched, needs_review, unknown_count, skipped, status
	FROM reconciliation_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []ReconciliationRun
	for rows.Next() {
		var (
			run         ReconciliationRun
			family      string
			startedAt   time.Time
			completedAt sql.NullTime
		)
		if err := rows.Scan(&run.ID, &family, &run.AccountID, &startedAt, &completedAt,
			&run.TransactionCount, &run.Counts.ItemsCreated, &run.Counts.AutoMatched,
			&run.Counts.NeedsReview, &run.Counts.Unknown, &run.Counts.Skipped, &run.Status); err != nil {
			return nil, err
		}
		run.Family = treasury.Family(family)
		run.StartedAt = startedAt.Format(time.RFC3339)
		if completedAt.Valid {
			run.CompletedAt = completedAt.Time.Format(time.RFC3339)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

package storage

import (
	"time"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
)

// Repository defines the complete storage interface. It allows swapping
// implementations (SQLite, in-memory, SQL server) and makes testing with
// the in-memory mock straightforward.
type Repository interface {
	ItemRepository
	ReferenceRepository
	AuditRepository
	RunRepository
	Close() error
}

// ItemRepository persists reconciliation items.
type ItemRepository interface {
	// SaveItem inserts or updates an item.
	SaveItem(item *treasury.ReconciliationItem) error

	// GetItem retrieves an item by its ID. Returns treasury.ErrItemNotFound
	// when absent.
	GetItem(id string) (*treasury.ReconciliationItem, error)

	// GetItemByTransaction retrieves the item extracted from a transaction,
	// if any. Extraction idempotence rests on this lookup.
	GetItemByTransaction(transactionID string) (*treasury.ReconciliationItem, error)

	// ListItems returns items matching the filters.
	ListItems(filters ItemFilters) ([]*treasury.ReconciliationItem, error)

	// GetSummary returns the aggregate projection for a family.
	GetSummary(family treasury.Family) (*Summary, error)
}

// ItemFilters narrows ListItems results. Zero values mean "no filter".
type ItemFilters struct {
	Family    treasury.Family
	Status    treasury.Status
	AccountID string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// ReferenceRepository is the candidate repository adapter: read access to
// the typed reference record collections, plus upserts for loading them.
type ReferenceRepository interface {
	// GetCandidates returns all reference records of a kind.
	GetCandidates(kind treasury.RecordKind) ([]treasury.ReferenceRecord, error)

	// GetCandidate retrieves one record. Returns treasury.ErrCandidateNotFound
	// when absent.
	GetCandidate(kind treasury.RecordKind, id string) (treasury.ReferenceRecord, error)

	// UpsertCandidate stores a reference record.
	UpsertCandidate(record treasury.ReferenceRecord) error
}

// AuditRepository persists the append-only audit trail.
type AuditRepository interface {
	// AppendAudit stores one entry.
	AppendAudit(entry events.AuditEntry) error

	// ListAuditByEntity returns the trail for one entity, oldest first.
	ListAuditByEntity(entityType, entityID string) ([]events.AuditEntry, error)
}

// RunRepository tracks batch extraction runs.
type RunRepository interface {
	// StartRun records the start of an extraction run and returns its ID.
	StartRun(family treasury.Family, accountID string, transactionCount int) (int64, error)

	// CompleteRun records the outcome counts of a run.
	CompleteRun(runID int64, result RunCounts) error

	// ListRuns returns recent runs, newest first.
	ListRuns(limit int) ([]ReconciliationRun, error)
}

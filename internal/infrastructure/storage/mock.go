package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores everything in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu         sync.Mutex
	items      map[string]*treasury.ReconciliationItem // by item ID
	byTx       map[string]string                       // transaction ID -> item ID
	candidates map[treasury.RecordKind]map[string]treasury.ReferenceRecord
	audit      []events.AuditEntry
	runs       map[int64]*ReconciliationRun
	nextRunID  int64

	// Hooks for test assertions
	SaveItemCalled  bool
	LastSavedItem   *treasury.ReconciliationItem
	StartRunCalled  bool
	AppendAuditCalled bool

	// Error injection for testing error paths
	SaveItemErr    error
	GetItemErr     error
	ListItemsErr   error
	CandidatesErr  error
	AppendAuditErr error
	StartRunErr    error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		items:      make(map[string]*treasury.ReconciliationItem),
		byTx:       make(map[string]string),
		candidates: make(map[treasury.RecordKind]map[string]treasury.ReferenceRecord),
		runs:       make(map[int64]*ReconciliationRun),
		nextRunID:  1,
	}
}

// Close does nothing for mock.
func (m *MockRepository) Close() error { return nil }

// SaveItem stores a copy of the item.
func (m *MockRepository) SaveItem(item *treasury.ReconciliationItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveItemCalled = true
	m.LastSavedItem = item
	if m.SaveItemErr != nil {
		return m.SaveItemErr
	}

	copied := *item
	m.items[item.ID] = &copied
	m.byTx[item.TransactionID] = item.ID
	return nil
}

// GetItem retrieves an item by ID.
func (m *MockRepository) GetItem(id string) (*treasury.ReconciliationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetItemErr != nil {
		return nil, m.GetItemErr
	}
	item, ok := m.items[id]
	if !ok {
		return nil, treasury.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

// GetItemByTransaction retrieves the item extracted from a transaction.
func (m *MockRepository) GetItemByTransaction(transactionID string) (*treasury.ReconciliationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetItemErr != nil {
		return nil, m.GetItemErr
	}
	id, ok := m.byTx[transactionID]
	if !ok {
		return nil, treasury.ErrItemNotFound
	}
	copied := *m.items[id]
	return &copied, nil
}

// ListItems returns items matching the filters, newest transaction first.
func (m *MockRepository) ListItems(filters ItemFilters) ([]*treasury.ReconciliationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListItemsErr != nil {
		return nil, m.ListItemsErr
	}

	var matched []*treasury.ReconciliationItem
	for _, item := range m.items {
		if filters.Family != "" && item.Family != filters.Family {
			continue
		}
		if filters.Status != "" && item.Status != filters.Status {
			continue
		}
		if filters.AccountID != "" && item.AccountID != filters.AccountID {
			continue
		}
		if !filters.From.IsZero() && item.TransactionDate.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && item.TransactionDate.After(filters.To) {
			continue
		}
		copied := *item
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].TransactionDate.Equal(matched[j].TransactionDate) {
			return matched[i].TransactionDate.After(matched[j].TransactionDate)
		}
		return strings.Compare(matched[i].ID, matched[j].ID) < 0
	})

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	if filters.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filters.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// GetSummary computes the aggregate projection for a family.
func (m *MockRepository) GetSummary(family treasury.Family) (*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := NewSummary(family)
	for _, item := range m.items {
		if item.Family != family {
			continue
		}
		summary.Accumulate(item)
	}
	summary.Finalize()
	return summary, nil
}

// UpsertCandidate stores a reference record.
func (m *MockRepository) UpsertCandidate(record treasury.ReferenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kind := record.Kind()
	if m.candidates[kind] == nil {
		m.candidates[kind] = make(map[string]treasury.ReferenceRecord)
	}
	m.candidates[kind][record.RecordID()] = record
	return nil
}

// GetCandidates returns all reference records of a kind, sorted by ID.
func (m *MockRepository) GetCandidates(kind treasury.RecordKind) ([]treasury.ReferenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CandidatesErr != nil {
		return nil, m.CandidatesErr
	}

	records := make([]treasury.ReferenceRecord, 0, len(m.candidates[kind]))
	for _, record := range m.candidates[kind] {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordID() < records[j].RecordID()
	})
	return records, nil
}

// GetCandidate retrieves one reference record.
func (m *MockRepository) GetCandidate(kind treasury.RecordKind, id string) (treasury.ReferenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CandidatesErr != nil {
		return nil, m.CandidatesErr
	}
	record, ok := m.candidates[kind][id]
	if !ok {
		return nil, treasury.ErrCandidateNotFound
	}
	return record, nil
}

// AppendAudit records an audit entry.
func (m *MockRepository) AppendAudit(entry events.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendAuditCalled = true
	if m.AppendAuditErr != nil {
		return m.AppendAuditErr
	}
	m.audit = append(m.audit, entry)
	return nil
}

// ListAuditByEntity returns the audit trail for one entity, oldest first.
func (m *MockRepository) ListAuditByEntity(entityType, entityID string) ([]events.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []events.AuditEntry
	for _, entry := range m.audit {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// AuditEntries returns a copy of every recorded audit entry.
func (m *MockRepository) AuditEntries() []events.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]events.AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

// StartRun records the start of an extraction run.
func (m *MockRepository) StartRun(family treasury.Family, accountID string, transactionCount int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}

	id := m.nextRunID
	m.nextRunID++
	m.runs[id] = &ReconciliationRun{
		ID:               id,
		Family:           family,
		AccountID:        accountID,
		TransactionCount: transactionCount,
		Status:           "running",
	}
	return id, nil
}

// CompleteRun records a run's outcome counts.
func (m *MockRepository) CompleteRun(runID int64, counts RunCounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil
	}
	run.Counts = counts
	run.Status = "completed"
	return nil
}

// ListRuns returns recorded runs, newest first.
func (m *MockRepository) ListRuns(limit int) ([]ReconciliationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	runs := make([]ReconciliationRun, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

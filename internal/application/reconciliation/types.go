package reconciliation

import (
	"log/slog"
	"time"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/classify"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/matcher"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// Engine owns the reconciliation item lifecycle for every family. All
// collaborators arrive through the constructor; there are no registries.
type Engine struct {
	repo       storage.Repository
	bus        events.Bus
	audit      events.AuditSink
	matcher    *matcher.Matcher
	classifier *classify.Chain
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine creates the reconciliation engine. classifier may be nil when no
// categorization is wanted; bus and audit may be nil and default to no-ops
// via the log bus.
func NewEngine(
	repo storage.Repository,
	bus events.Bus,
	audit events.AuditSink,
	m *matcher.Matcher,
	classifier *classify.Chain,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = events.NewLogBus(logger)
	}
	return &Engine{
		repo:       repo,
		bus:        bus,
		audit:      audit,
		matcher:    m,
		classifier: classifier,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ItemResult is the per-transaction outcome of a batch extraction. A failed
// transaction never aborts the rest of the batch.
type ItemResult struct {
	TransactionID string                       `json:"transaction_id"`
	Item          *treasury.ReconciliationItem `json:"item,omitempty"`
	Skipped       bool                         `json:"skipped"`
	SkipReason    string                       `json:"skip_reason,omitempty"`
	Error         string                       `json:"error,omitempty"`
}

// ExtractResult is the outcome of one batch extraction run.
type ExtractResult struct {
	RunID   int64             `json:"run_id"`
	Family  treasury.Family   `json:"family"`
	Results []ItemResult      `json:"results"`
	Counts  storage.RunCounts `json:"counts"`
}

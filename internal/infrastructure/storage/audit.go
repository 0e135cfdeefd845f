package storage

import "github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"

// AuditSink adapts an AuditRepository into an events.AuditSink, so the audit
// trail lands in the same database as the reconciliation state.
type AuditSink struct {
	repo AuditRepository
}

// NewAuditSink wraps a repository.
func NewAuditSink(repo AuditRepository) *AuditSink {
	return &AuditSink{repo: repo}
}

var _ events.AuditSink = (*AuditSink)(nil)

// Append stores the entry.
func (s *AuditSink) Append(entry events.AuditEntry) error {
	return s.repo.AppendAudit(entry)
}

package dto

import (
	"time"

	"github.com/Wedkamikazi/tmsxo-backend/internal/application/reconciliation"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/investment"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/matcher"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ItemResponse represents a reconciliation item in API responses.
type ItemResponse struct {
	ID              string   `json:"id"`
	TransactionID   string   `json:"transaction_id"`
	AccountID       string   `json:"account_id"`
	Family          string   `json:"family"`
	Category        string   `json:"category,omitempty"`
	Status          string   `json:"status"`
	TransactionDate string   `json:"transaction_date"`
	Amount          string   `json:"amount"`
	Description     string   `json:"description,omitempty"`
	ConfidenceRatio *float64 `json:"confidence_ratio,omitempty"`
	MatchedRecordID string   `json:"matched_record_id,omitempty"`
	MatchedKind     string   `json:"matched_kind,omitempty"`
	VerifiedBy      string   `json:"verified_by,omitempty"`
	VerifiedAt      string   `json:"verified_at,omitempty"`
	Observations    string   `json:"observations,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// ToItemResponse converts a domain item to an API response.
func ToItemResponse(item *treasury.ReconciliationItem) ItemResponse {
	resp := ItemResponse{
		ID:              item.ID,
		TransactionID:   item.TransactionID,
		AccountID:       item.AccountID,
		Family:          string(item.Family),
		Category:        item.Category,
		Status:          string(item.Status),
		TransactionDate: item.TransactionDate.Format(time.RFC3339),
		Amount:          item.Amount.StringFixed(2),
		Description:     item.Description,
		ConfidenceRatio: item.ConfidenceRatio,
		VerifiedBy:      item.VerifiedBy,
		Observations:    item.Observations,
		CreatedAt:       item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.Format(time.RFC3339),
	}
	if item.Matched != nil {
		resp.MatchedRecordID = item.Matched.RecordID
		resp.MatchedKind = string(item.Matched.Kind)
	}
	if item.VerificationDate != nil {
		resp.VerifiedAt = item.VerificationDate.Format(time.RFC3339)
	}
	return resp
}

// ItemListResponse is returned when listing items.
type ItemListResponse struct {
	Items  []ItemResponse `json:"items"`
	Count  int            `json:"count"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// OutcomeResponse reports one matching pass over an item.
type OutcomeResponse struct {
	Outcome     string       `json:"outcome"`
	Score       float64      `json:"score,omitempty"`
	Reasons     []string     `json:"reasons,omitempty"`
	CandidateID string       `json:"candidate_id,omitempty"`
	Kind        string       `json:"kind,omitempty"`
	Item        ItemResponse `json:"item"`
}

// ToOutcomeResponse converts a matcher outcome plus the resulting item state.
func ToOutcomeResponse(outcome *matcher.Outcome, item *treasury.ReconciliationItem) OutcomeResponse {
	resp := OutcomeResponse{
		Outcome: string(outcome.Kind),
		Score:   outcome.Score,
		Reasons: outcome.Reasons,
		Item:    ToItemResponse(item),
	}
	if outcome.Candidate != nil {
		resp.CandidateID = outcome.Candidate.RecordID()
		resp.Kind = string(outcome.Candidate.Kind())
	}
	return resp
}

// ExtractResponse is returned by the batch extraction endpoint.
type ExtractResponse struct {
	RunID   int64                `json:"run_id"`
	Family  string               `json:"family"`
	Counts  storage.RunCounts    `json:"counts"`
	Results []ItemResultResponse `json:"results"`
}

// ItemResultResponse is the per-transaction outcome inside an extraction.
type ItemResultResponse struct {
	TransactionID string        `json:"transaction_id"`
	Skipped       bool          `json:"skipped"`
	SkipReason    string        `json:"skip_reason,omitempty"`
	Error         string        `json:"error,omitempty"`
	Item          *ItemResponse `json:"item,omitempty"`
}

// ToExtractResponse converts an engine extraction result.
func ToExtractResponse(result *reconciliation.ExtractResult) ExtractResponse {
	resp := ExtractResponse{
		RunID:   result.RunID,
		Family:  string(result.Family),
		Counts:  result.Counts,
		Results: make([]ItemResultResponse, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		item := ItemResultResponse{
			TransactionID: r.TransactionID,
			Skipped:       r.Skipped,
			SkipReason:    r.SkipReason,
			Error:         r.Error,
		}
		if r.Item != nil {
			ir := ToItemResponse(r.Item)
			item.Item = &ir
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// SummaryResponse is the aggregate projection for a family.
type SummaryResponse struct {
	Family         string         `json:"family"`
	TotalItems     int            `json:"total_items"`
	ByStatus       map[string]int `json:"by_status"`
	TotalAmount    string         `json:"total_amount"`
	MatchedAmount  string         `json:"matched_amount"`
	MeanConfidence float64        `json:"mean_confidence"`
}

// ToSummaryResponse converts a storage summary.
func ToSummaryResponse(summary *storage.Summary) SummaryResponse {
	byStatus := make(map[string]int, len(summary.ByStatus))
	for status, count := range summary.ByStatus {
		byStatus[string(status)] = count
	}
	return SummaryResponse{
		Family:         string(summary.Family),
		TotalItems:     summary.TotalItems,
		ByStatus:       byStatus,
		TotalAmount:    summary.TotalAmount.StringFixed(2),
		MatchedAmount:  summary.MatchedAmount.StringFixed(2),
		MeanConfidence: summary.MeanConfidence,
	}
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
	ID               int64             `json:"id"`
	Family           string            `json:"family"`
	AccountID        string            `json:"account_id,omitempty"`
	StartedAt        string            `json:"started_at"`
	CompletedAt      string            `json:"completed_at,omitempty"`
	TransactionCount int               `json:"transaction_count"`
	Counts           storage.RunCounts `json:"counts"`
	Status           string            `json:"status"`
}

// ToRunResponse converts a storage run record.
func ToRunResponse(run storage.ReconciliationRun) RunResponse {
	return RunResponse{
		ID:               run.ID,
		Family:           string(run.Family),
		AccountID:        run.AccountID,
		StartedAt:        run.StartedAt,
		CompletedAt:      run.CompletedAt,
		TransactionCount: run.TransactionCount,
		Counts:           run.Counts,
		Status:           run.Status,
	}
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// AuditEntryResponse is one audit trail entry.
type AuditEntryResponse struct {
	ID         string         `json:"id"`
	At         string         `json:"at"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// ToAuditEntryResponse converts an audit entry.
func ToAuditEntryResponse(entry events.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         entry.ID,
		At:         entry.At.Format(time.RFC3339),
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Payload:    entry.Payload,
	}
}

// AuditTrailResponse is the full trail for one entity.
type AuditTrailResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
	Count   int                  `json:"count"`
}

// CandidateResponse represents a reference record in API responses.
type CandidateResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Label        string `json:"label"`
	Amount       string `json:"amount"`
	RelevantDate string `json:"relevant_date"`
	LedgerBacked bool   `json:"ledger_backed"`
}

// ToCandidateResponse converts a reference record.
func ToCandidateResponse(record treasury.ReferenceRecord) CandidateResponse {
	return CandidateResponse{
		ID:           record.RecordID(),
		Kind:         string(record.Kind()),
		Label:        record.Label(),
		Amount:       record.Amount().StringFixed(2),
		RelevantDate: record.RelevantDate().Format(time.RFC3339),
		LedgerBacked: record.LedgerBacked(),
	}
}

// CandidateListResponse is returned when listing candidates of a kind.
type CandidateListResponse struct {
	Kind       string              `json:"kind"`
	Candidates []CandidateResponse `json:"candidates"`
	Count      int                 `json:"count"`
}

// SuggestionListResponse is returned by the investment suggestion endpoint.
type SuggestionListResponse struct {
	Suggestions []investment.Suggestion `json:"suggestions"`
	Count       int                     `json:"count"`
}

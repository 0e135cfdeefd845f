package storage

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
)

// Summary is the read-only aggregate projection over a family's items.
type Summary struct {
	Family         treasury.Family         `json:"family"`
	TotalItems     int                     `json:"total_items"`
	ByStatus       map[treasury.Status]int `json:"by_status"`
	TotalAmount    decimal.Decimal         `json:"total_amount"`
	MatchedAmount  decimal.Decimal         `json:"matched_amount"`
	MeanConfidence float64                 `json:"mean_confidence"`
}

// NewSummary creates an empty summary for a family.
func NewSummary(family treasury.Family) *Summary {
	return &Summary{
		Family:        family,
		ByStatus:      make(map[treasury.Status]int),
		TotalAmount:   decimal.Zero,
		MatchedAmount: decimal.Zero,
	}
}

// Accumulate folds one item into the summary. Callers finish the confidence
// mean with Finalize.
func (s *Summary) Accumulate(item *treasury.ReconciliationItem) {
	s.TotalItems++
	s.ByStatus[item.Status]++
	s.TotalAmount = s.TotalAmount.Add(item.Amount.Abs())
	if item.Status.IsMatched() {
		s.MatchedAmount = s.MatchedAmount.Add(item.Amount.Abs())
	}
	if item.ConfidenceRatio != nil {
		s.MeanConfidence += *item.ConfidenceRatio
	}
}

// Finalize turns the accumulated confidence sum into a mean.
func (s *Summary) Finalize() {
	matched := s.ByStatus[treasury.StatusAutoMatched] +
		s.ByStatus[treasury.StatusManuallyMatched] +
		s.ByStatus[treasury.StatusConfirmed]
	if matched > 0 {
		s.MeanConfidence /= float64(matched)
	} else {
		s.MeanConfidence = 0
	}
}

// RunCounts are the outcome tallies of one extraction run.
type RunCounts struct {
	ItemsCreated int `json:"items_created"`
	AutoMatched  int `json:"auto_matched"`
	NeedsReview  int `json:"needs_review"`
	Unknown      int `json:"unknown"`
	Skipped      int `json:"skipped"`
}

// ReconciliationRun is one recorded batch extraction.
type ReconciliationRun struct {
	ID               int64           `json:"id"`
	Family           treasury.Family `json:"family"`
	AccountID        string          `json:"account_id"`
	StartedAt        string          `json:"started_at"`
	CompletedAt      string          `json:"completed_at,omitempty"`
	TransactionCount int             `json:"transaction_count"`
	Counts           RunCounts       `json:"counts"`
	Status           string          `json:"status"`
}

// encodeRecord serializes a reference record for storage.
func encodeRecord(record treasury.ReferenceRecord) (payload string, err error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s record: %w", record.Kind(), err)
	}
	return string(data), nil
}

// DecodeRecord deserializes a reference record by kind tag.
func DecodeRecord(kind treasury.RecordKind, payload string) (treasury.ReferenceRecord, error) {
	raw := []byte(payload)
	switch kind {
	case treasury.KindAgingEntry:
		var r treasury.AgingEntry
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case treasury.KindForecastEntry:
		var r treasury.ForecastEntry
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case treasury.KindPayrollEntry:
		var r treasury.PayrollEntry
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case treasury.KindIntercompanyRecord:
		var r treasury.IntercompanyRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case treasury.KindCashForecastEntry:
		var r treasury.CashForecastEntry
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case treasury.KindDepositPlacement:
		var r treasury.DepositPlacement
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

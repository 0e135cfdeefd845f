package treasury

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the reconciliation lifecycle state of an item.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAutoMatched     Status = "auto_matched"
	StatusManuallyMatched Status = "manually_matched"
	StatusUnknown         Status = "unknown"
	StatusConfirmed       Status = "confirmed"
)

// validTransitions encodes the lifecycle:
// pending -> auto_matched | manually_matched | unknown
// auto_matched -> manually_matched | confirmed
// manually_matched -> confirmed
// unknown -> auto_matched | manually_matched (re-matching once candidates arrive)
// confirmed is terminal.
var validTransitions = map[Status][]Status{
	StatusPending:         {StatusAutoMatched, StatusManuallyMatched, StatusUnknown},
	StatusAutoMatched:     {StatusManuallyMatched, StatusConfirmed},
	StatusManuallyMatched: {StatusConfirmed},
	StatusUnknown:         {StatusAutoMatched, StatusManuallyMatched},
	StatusConfirmed:       {},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Re-running auto reconciliation may re-apply the current status, so a
// self-transition is always allowed for non-terminal states.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return s != StatusConfirmed
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsMatched reports whether the item carries a match (auto or manual).
func (s Status) IsMatched() bool {
	return s == StatusAutoMatched || s == StatusManuallyMatched || s == StatusConfirmed
}

// MatchedEntity points at the reference record an item was reconciled to.
type MatchedEntity struct {
	RecordID string     `json:"record_id"`
	Kind     RecordKind `json:"kind"`
}

// ReconciliationItem tracks one transaction through the matching lifecycle.
// Created at extraction, mutated only by the reconciliation engine, never
// physically deleted.
type ReconciliationItem struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Family        Family `json:"family"`
	Category      string `json:"category,omitempty"`
	Status        Status `json:"status"`

	// TransactionDate, Amount and Description are denormalized from the
	// source transaction so re-matching, list filters and summaries do not
	// need the transaction feed. Amount is signed: credits positive.
	TransactionDate time.Time       `json:"transaction_date"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`

	// ConfidenceRatio is set only when the item is matched; manual matches
	// always carry 1.0.
	ConfidenceRatio *float64       `json:"confidence_ratio,omitempty"`
	Matched         *MatchedEntity `json:"matched_entity,omitempty"`

	VerificationDate *time.Time `json:"verification_date,omitempty"`
	VerifiedBy       string     `json:"verified_by,omitempty"`
	Observations     string     `json:"observations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceTransaction rebuilds the matching view of the source transaction
// from the denormalized fields.
func (i *ReconciliationItem) SourceTransaction() Transaction {
	tx := Transaction{
		ID:          i.TransactionID,
		Date:        i.TransactionDate,
		Description: i.Description,
		AccountID:   i.AccountID,
	}
	if i.Amount.IsNegative() {
		tx.Debit = i.Amount.Neg()
	} else {
		tx.Credit = i.Amount
	}
	return tx
}

// ApplyAutoMatch records an accepted automatic match.
func (i *ReconciliationItem) ApplyAutoMatch(recordID string, kind RecordKind, confidence float64, now time.Time) error {
	if err := i.transition(StatusAutoMatched); err != nil {
		return err
	}
	i.ConfidenceRatio = &confidence
	i.Matched = &MatchedEntity{RecordID: recordID, Kind: kind}
	i.UpdatedAt = now
	return nil
}

// ApplyManualMatch records a human-chosen match. Confidence is always 1.0.
func (i *ReconciliationItem) ApplyManualMatch(recordID string, kind RecordKind, notes string, now time.Time) error {
	if err := i.transition(StatusManuallyMatched); err != nil {
		return err
	}
	one := 1.0
	i.ConfidenceRatio = &one
	i.Matched = &MatchedEntity{RecordID: recordID, Kind: kind}
	if notes != "" {
		i.Observations = notes
	}
	i.UpdatedAt = now
	return nil
}

// MarkUnknown records that no candidate scored at all.
func (i *ReconciliationItem) MarkUnknown(now time.Time) error {
	if err := i.transition(StatusUnknown); err != nil {
		return err
	}
	i.ConfidenceRatio = nil
	i.Matched = nil
	i.UpdatedAt = now
	return nil
}

// Confirm closes out a matched item. Items still pending or unknown cannot
// be confirmed; a human must resolve the match first.
func (i *ReconciliationItem) Confirm(verifiedBy, observations string, now time.Time) error {
	if !i.Status.IsMatched() {
		return fmt.Errorf("%w: cannot confirm item in status %q", ErrInvalidTransition, i.Status)
	}
	if err := i.transition(StatusConfirmed); err != nil {
		return err
	}
	i.VerifiedBy = verifiedBy
	if observations != "" {
		i.Observations = observations
	}
	i.VerificationDate = &now
	i.UpdatedAt = now
	return nil
}

func (i *ReconciliationItem) transition(next Status) error {
	if !i.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, i.Status, next)
	}
	i.Status = next
	return nil
}

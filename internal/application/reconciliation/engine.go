// Package reconciliation orchestrates the lifecycle of reconciliation items:
// extraction from the transaction feed, automatic matching, manual
// correction, and confirmation. Every successful mutation emits one domain
// event and appends one audit entry; both are best-effort and never roll
// back reconciliation state.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/matcher"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// Extract filters the transaction batch by the family's applicability
// predicate, builds a reconciliation item per matching transaction, and runs
// one auto-reconciliation pass per new item. Re-extracting an already-known
// transaction is a no-op, not an error, so re-running a batch after a
// partial failure is safe.
func (e *Engine) Extract(ctx context.Context, family treasury.Family, txs []treasury.Transaction, accountID string) (*ExtractResult, error) {
	runID, err := e.repo.StartRun(family, accountID, len(txs))
	if err != nil {
		return nil, fmt.Errorf("failed to start extraction run: %w", err)
	}

	result := &ExtractResult{RunID: runID, Family: family}

	for _, tx := range txs {
		itemResult := e.extractOne(ctx, family, tx)
		result.Results = append(result.Results, itemResult)

		switch {
		case itemResult.Error != "":
			// Counted as skipped for run bookkeeping; the per-item result
			// carries the detail.
			result.Counts.Skipped++
		case itemResult.Skipped:
			result.Counts.Skipped++
		default:
			result.Counts.ItemsCreated++
			switch itemResult.Item.Status {
			case treasury.StatusAutoMatched:
				result.Counts.AutoMatched++
			case treasury.StatusUnknown:
				result.Counts.Unknown++
			default:
				result.Counts.NeedsReview++
			}
		}
	}

	if err := e.repo.CompleteRun(runID, result.Counts); err != nil {
		e.logger.Warn("failed to record run completion", "run_id", runID, "error", err)
	}

	e.logger.Info("extraction run completed",
		"family", family,
		"run_id", runID,
		"transactions", len(txs),
		"created", result.Counts.ItemsCreated,
		"auto_matched", result.Counts.AutoMatched,
		"skipped", result.Counts.Skipped,
	)

	return result, nil
}

func (e *Engine) extractOne(ctx context.Context, family treasury.Family, tx treasury.Transaction) ItemResult {
	res := ItemResult{TransactionID: tx.ID}

	if !family.AppliesTo(tx) {
		res.Skipped = true
		res.SkipReason = "not applicable to family"
		return res
	}

	// Idempotence: one item per transaction, ever.
	if existing, err := e.repo.GetItemByTransaction(tx.ID); err == nil {
		res.Item = existing
		res.Skipped = true
		res.SkipReason = "already extracted"
		return res
	} else if !errors.Is(err, treasury.ErrItemNotFound) {
		res.Error = fmt.Sprintf("lookup failed: %v", err)
		return res
	}

	now := e.now()
	item := &treasury.ReconciliationItem{
		ID:              uuid.NewString(),
		TransactionID:   tx.ID,
		AccountID:       tx.AccountID,
		Family:          family,
		Status:          treasury.StatusPending,
		TransactionDate: tx.Date,
		Amount:          tx.Amount(),
		Description:     tx.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if e.classifier != nil {
		item.Category = e.classifier.Categorize(ctx, tx.Description).Category
	}

	outcome, err := e.autoMatch(item)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	if err := e.repo.SaveItem(item); err != nil {
		res.Error = fmt.Sprintf("save failed: %v", err)
		return res
	}

	payload := map[string]any{
		"transaction_id": tx.ID,
		"status":         string(item.Status),
		"category":       item.Category,
	}
	if outcome.Kind != matcher.NoMatch && outcome.Candidate != nil {
		payload["best_candidate"] = outcome.Candidate.RecordID()
		payload["score"] = outcome.Score
	}
	e.notify(family, "EXTRACTED", "system", item.ID, payload)

	res.Item = item
	return res
}

// PerformAutoReconciliation re-invokes the matcher for an item against the
// current candidate sets. Accepted outcomes update the item; NoMatch marks
// it unknown; NeedsReview leaves the status untouched and only surfaces the
// best candidate.
func (e *Engine) PerformAutoReconciliation(ctx context.Context, itemID string) (*matcher.Outcome, error) {
	item, err := e.repo.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	if item.Status == treasury.StatusConfirmed {
		return nil, fmt.Errorf("%w: item %s is confirmed", treasury.ErrInvalidTransition, itemID)
	}

	outcome, err := e.autoMatch(item)
	if err != nil {
		return nil, err
	}

	if err := e.repo.SaveItem(item); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", itemID, err)
	}

	if item.Status == treasury.StatusAutoMatched || item.Status == treasury.StatusUnknown {
		e.notify(item.Family, "RECONCILED", "system", item.ID, map[string]any{
			"status":  string(item.Status),
			"outcome": string(outcome.Kind),
			"score":   outcome.Score,
			"reasons": outcome.Reasons,
		})
	}

	return outcome, nil
}

// autoMatch runs one matching pass and applies the outcome to the item
// in memory. The caller persists.
func (e *Engine) autoMatch(item *treasury.ReconciliationItem) (*matcher.Outcome, error) {
	pools, err := e.candidatePools(item.Family)
	if err != nil {
		return nil, err
	}

	tx := item.SourceTransaction()
	outcome := e.matcher.MatchPools(tx, pools)

	switch outcome.Kind {
	case matcher.Accepted:
		if err := item.ApplyAutoMatch(outcome.Candidate.RecordID(), outcome.Candidate.Kind(), outcome.Score, e.now()); err != nil {
			return nil, err
		}
	case matcher.NoMatch:
		if item.Status == treasury.StatusPending {
			if err := item.MarkUnknown(e.now()); err != nil {
				return nil, err
			}
		}
	case matcher.NeedsReview:
		// Below threshold: leave the status for a human, surface the best
		// candidate in the outcome only.
	}

	return &outcome, nil
}

// PerformManualReconciliation forces a human-chosen match onto the item.
// Confidence is always exactly 1.0. Fails with ErrInvalidTransition when the
// item is already confirmed, and with ErrCandidateNotFound when the chosen
// record does not exist.
func (e *Engine) PerformManualReconciliation(ctx context.Context, itemID, recordID string, kind treasury.RecordKind, actor, notes string) (*treasury.ReconciliationItem, error) {
	item, err := e.repo.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	if _, err := e.repo.GetCandidate(kind, recordID); err != nil {
		return nil, err
	}

	if err := item.ApplyManualMatch(recordID, kind, notes, e.now()); err != nil {
		return nil, err
	}

	if err := e.repo.SaveItem(item); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", itemID, err)
	}

	e.notify(item.Family, "RECONCILED", actor, item.ID, map[string]any{
		"status":    string(treasury.StatusManuallyMatched),
		"record_id": recordID,
		"kind":      string(kind),
		"notes":     notes,
	})

	return item, nil
}

// Confirm transitions a matched item to the terminal confirmed state. Items
// still pending or unknown are rejected: a human must resolve the match
// before confirmation means anything.
func (e *Engine) Confirm(ctx context.Context, itemID, verifiedBy, observations string) (*treasury.ReconciliationItem, error) {
	item, err := e.repo.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	if err := item.Confirm(verifiedBy, observations, e.now()); err != nil {
		return nil, err
	}

	if err := e.repo.SaveItem(item); err != nil {
		return nil, fmt.Errorf("failed to save item %s: %w", itemID, err)
	}

	e.notify(item.Family, "CONFIRMED", verifiedBy, item.ID, map[string]any{
		"verified_by":  verifiedBy,
		"observations": observations,
	})

	return item, nil
}

// Summary returns the read-only aggregate projection for a family.
func (e *Engine) Summary(family treasury.Family) (*storage.Summary, error) {
	return e.repo.GetSummary(family)
}

// ListItems exposes filtered item reads.
func (e *Engine) ListItems(filters storage.ItemFilters) ([]*treasury.ReconciliationItem, error) {
	return e.repo.ListItems(filters)
}

// GetItem exposes single-item reads.
func (e *Engine) GetItem(itemID string) (*treasury.ReconciliationItem, error) {
	return e.repo.GetItem(itemID)
}

// candidatePools loads the family's candidate sets in priority order.
func (e *Engine) candidatePools(family treasury.Family) ([][]treasury.ReferenceRecord, error) {
	kinds := family.CandidateKinds()
	pools := make([][]treasury.ReferenceRecord, 0, len(kinds))
	for _, kind := range kinds {
		candidates, err := e.repo.GetCandidates(kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s candidates: %w", kind, err)
		}
		pools = append(pools, candidates)
	}
	return pools, nil
}

// notify emits the domain event and appends the audit entry for a mutation.
// Sink failures are logged, never propagated: reconciliation state is the
// source of truth and audit is best-effort.
func (e *Engine) notify(family treasury.Family, suffix, actor, itemID string, payload map[string]any) {
	name := strings.ToUpper(string(family)) + "_" + suffix
	e.bus.Emit(name, payload)

	if e.audit == nil {
		return
	}
	entry := events.NewAuditEntry(actor, name, "reconciliation_item", itemID, payload)
	if err := e.audit.Append(entry); err != nil {
		e.logger.Error("failed to append audit entry", "action", name, "item_id", itemID, "error", err)
	}
}

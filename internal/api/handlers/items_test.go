package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/api/handlers"
	"github.com/Wedkamikazi/tmsxo-backend/internal/application/reconciliation"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/matcher"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/scoring"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

func newTestEngine(repo storage.Repository) *reconciliation.Engine {
	m := matcher.NewMatcher(scoring.NewScorer(scoring.DefaultConfig()), matcher.DefaultConfig())
	return reconciliation.NewEngine(repo, events.NewMemoryBus(), storage.NewAuditSink(repo), m, nil, nil)
}

func pendingItem(id, txID string) *treasury.ReconciliationItem {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return &treasury.ReconciliationItem{
		ID:              id,
		TransactionID:   txID,
		AccountID:       "ACC-1",
		Family:          treasury.FamilyCollections,
		Status:          treasury.StatusPending,
		TransactionDate: now,
		Amount:          decimal.NewFromInt(50000),
		Description:     "WIRE ACME CORP INV-1001",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

// Helper to set chi URL param in context
func setChiURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func TestItemsHandler_List(t *testing.T) {
	t.Run("returns empty list when no items", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response dto.ItemListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Empty(t, response.Items)
		assert.Equal(t, 0, response.Count)
		assert.Equal(t, 50, response.Limit) // default limit
		assert.Equal(t, 0, response.Offset)
	})

	t.Run("filters by family", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveItem(pendingItem("item-1", "TX-1")))

		payroll := pendingItem("item-2", "TX-2")
		payroll.Family = treasury.FamilyPayroll
		require.NoError(t, repo.SaveItem(payroll))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		req := httptest.NewRequest(http.MethodGet, "/api/items?family=payroll", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ItemListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		require.Equal(t, 1, response.Count)
		assert.Equal(t, "item-2", response.Items[0].ID)
		assert.Equal(t, "payroll", response.Items[0].Family)
	})

	t.Run("rejects an unknown family", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		req := httptest.NewRequest(http.MethodGet, "/api/items?family=nonsense", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeBadRequest, response.Code)
	})
}

func TestItemsHandler_Get(t *testing.T) {
	t.Run("returns the item", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveItem(pendingItem("item-1", "TX-1")))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		req := httptest.NewRequest(http.MethodGet, "/api/items/item-1", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ItemResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "item-1", response.ID)
		assert.Equal(t, "pending", response.Status)
		assert.Equal(t, "50000.00", response.Amount)
	})

	t.Run("returns 404 for an unknown item", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		req := httptest.NewRequest(http.MethodGet, "/api/items/missing", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "missing"))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeNotFound, response.Code)
	})
}

func TestItemsHandler_Reconcile(t *testing.T) {
	t.Run("matches an unknown item once a candidate exists", func(t *testing.T) {
		repo := storage.NewMockRepository()

		item := pendingItem("item-1", "TX-1")
		item.Status = treasury.StatusUnknown
		require.NoError(t, repo.SaveItem(item))

		require.NoError(t, repo.UpsertCandidate(treasury.AgingEntry{
			ID:            "AR-1",
			CustomerName:  "Acme Corp",
			InvoiceNumber: "INV-1001",
			AmountDue:     decimal.NewFromInt(50000),
			DueDate:       time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		}))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/reconcile", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Reconcile(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.OutcomeResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "accepted", response.Outcome)
		assert.Equal(t, "AR-1", response.CandidateID)
		assert.Equal(t, "auto_matched", response.Item.Status)
		assert.NotEmpty(t, response.Reasons)
	})

	t.Run("returns 409 for a confirmed item", func(t *testing.T) {
		repo := storage.NewMockRepository()

		item := pendingItem("item-1", "TX-1")
		item.Status = treasury.StatusConfirmed
		require.NoError(t, repo.SaveItem(item))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/reconcile", nil)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Reconcile(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeConflict, response.Code)
	})
}

func TestItemsHandler_Match(t *testing.T) {
	t.Run("applies a manual match with full confidence", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveItem(pendingItem("item-1", "TX-1")))
		require.NoError(t, repo.UpsertCandidate(treasury.AgingEntry{
			ID:           "AR-9",
			CustomerName: "Beta LLC",
			AmountDue:    decimal.NewFromInt(49000),
			DueDate:      time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		}))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ManualReconcileRequest{
			RecordID: "AR-9",
			Kind:     "aging_entry",
			Actor:    "alice",
			Notes:    "short payment agreed with customer",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/match", body)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Match(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ItemResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "manually_matched", response.Status)
		assert.Equal(t, "AR-9", response.MatchedRecordID)
		require.NotNil(t, response.ConfidenceRatio)
		assert.Equal(t, 1.0, *response.ConfidenceRatio)
		assert.Equal(t, "short payment agreed with customer", response.Observations)
	})

	t.Run("rejects an unknown record kind", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveItem(pendingItem("item-1", "TX-1")))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ManualReconcileRequest{RecordID: "AR-9", Kind: "nonsense", Actor: "alice"})
		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/match", body)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Match(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 404 when the chosen record does not exist", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveItem(pendingItem("item-1", "TX-1")))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ManualReconcileRequest{RecordID: "AR-404", Kind: "aging_entry", Actor: "alice"})
		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/match", body)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Match(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects a body missing the actor", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ManualReconcileRequest{RecordID: "AR-9", Kind: "aging_entry"})
		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/match", body)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Match(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeValidation, response.Code)
	})
}

func TestItemsHandler_Confirm(t *testing.T) {
	t.Run("closes out a matched item", func(t *testing.T) {
		repo := storage.NewMockRepository()

		item := pendingItem("item-1", "TX-1")
		confidence := 0.92
		item.Status = treasury.StatusAutoMatched
		item.ConfidenceRatio = &confidence
		item.Matched = &treasury.MatchedEntity{RecordID: "AR-1", Kind: treasury.KindAgingEntry}
		require.NoError(t, repo.SaveItem(item))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ConfirmRequest{VerifiedBy: "bob", Observations: "verified against bank advice"})
		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/confirm", body)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Confirm(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ItemResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "confirmed", response.Status)
		assert.Equal(t, "bob", response.VerifiedBy)
		assert.NotEmpty(t, response.VerifiedAt)
	})

	t.Run("returns 409 for a pending item", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.SaveItem(pendingItem("item-1", "TX-1")))

		handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ConfirmRequest{VerifiedBy: "bob"})
		req := httptest.NewRequest(http.MethodPost, "/api/items/item-1/confirm", body)
		req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
		rec := httptest.NewRecorder()

		handler.Confirm(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestItemsHandler_Audit(t *testing.T) {
	repo := storage.NewMockRepository()
	require.NoError(t, repo.AppendAudit(events.NewAuditEntry(
		"system", "COLLECTIONS_EXTRACTED", "reconciliation_item", "item-1",
		map[string]any{"transaction_id": "TX-1"},
	)))
	require.NoError(t, repo.AppendAudit(events.NewAuditEntry(
		"bob", "COLLECTIONS_CONFIRMED", "reconciliation_item", "item-1", nil,
	)))

	handler := handlers.NewItemsHandler(repo, newTestEngine(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/items/item-1/audit", nil)
	req = req.WithContext(setChiURLParam(req.Context(), "id", "item-1"))
	rec := httptest.NewRecorder()

	handler.Audit(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.AuditTrailResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	require.Equal(t, 2, response.Count)
	assert.Equal(t, "COLLECTIONS_EXTRACTED", response.Entries[0].Action)
	assert.Equal(t, "system", response.Entries[0].Actor)
	assert.Equal(t, "bob", response.Entries[1].Actor)
}

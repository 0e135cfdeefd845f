package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/api/handlers"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

func TestReconciliationHandler_Extract(t *testing.T) {
	t.Run("extracts and auto-matches a batch", func(t *testing.T) {
		repo := storage.NewMockRepository()
		require.NoError(t, repo.UpsertCandidate(treasury.AgingEntry{
			ID:            "AR-1",
			CustomerName:  "Acme Corp",
			InvoiceNumber: "INV-1001",
			AmountDue:     decimal.NewFromInt(50000),
			DueDate:       time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		}))

		handler := handlers.NewReconciliationHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ExtractRequest{
			AccountID: "ACC-1",
			Transactions: []dto.TransactionPayload{
				{
					ID:          "TX-1",
					Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
					Description: "WIRE ACME CORP INV-1001",
					Credit:      decimal.NewFromInt(50000),
				},
				{
					ID:          "TX-2",
					Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
					Description: "UNKNOWN CREDIT",
					Credit:      decimal.NewFromInt(123),
				},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/collections/extract", body)
		req = req.WithContext(setChiURLParam(req.Context(), "family", "collections"))
		rec := httptest.NewRecorder()

		handler.Extract(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.ExtractResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "collections", response.Family)
		assert.Equal(t, 2, response.Counts.ItemsCreated)
		assert.Equal(t, 1, response.Counts.AutoMatched)
		assert.Equal(t, 1, response.Counts.Unknown)

		require.Len(t, response.Results, 2)
		require.NotNil(t, response.Results[0].Item)
		assert.Equal(t, "auto_matched", response.Results[0].Item.Status)
		assert.Equal(t, "AR-1", response.Results[0].Item.MatchedRecordID)
		require.NotNil(t, response.Results[1].Item)
		assert.Equal(t, "unknown", response.Results[1].Item.Status)
	})

	t.Run("rejects an unknown family", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ExtractRequest{
			Transactions: []dto.TransactionPayload{{
				ID:          "TX-1",
				Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
				Description: "WIRE",
				Credit:      decimal.NewFromInt(1),
			}},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/nonsense/extract", body)
		req = req.WithContext(setChiURLParam(req.Context(), "family", "nonsense"))
		rec := httptest.NewRecorder()

		handler.Extract(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an empty transaction batch", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewReconciliationHandler(repo, newTestEngine(repo))

		body := jsonBody(t, dto.ExtractRequest{AccountID: "ACC-1"})
		req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/collections/extract", body)
		req = req.WithContext(setChiURLParam(req.Context(), "family", "collections"))
		rec := httptest.NewRecorder()

		handler.Extract(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeValidation, response.Code)
	})
}

func TestReconciliationHandler_Summary(t *testing.T) {
	repo := storage.NewMockRepository()

	matched := pendingItem("item-m", "TX-M")
	confidence := 0.9
	matched.Status = treasury.StatusAutoMatched
	matched.ConfidenceRatio = &confidence
	matched.Matched = &treasury.MatchedEntity{RecordID: "AR-1", Kind: treasury.KindAgingEntry}
	require.NoError(t, repo.SaveItem(matched))

	unknown := pendingItem("item-u", "TX-U")
	unknown.Status = treasury.StatusUnknown
	require.NoError(t, repo.SaveItem(unknown))

	handler := handlers.NewReconciliationHandler(repo, newTestEngine(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/reconciliation/collections/summary", nil)
	req = req.WithContext(setChiURLParam(req.Context(), "family", "collections"))
	rec := httptest.NewRecorder()

	handler.Summary(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.SummaryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	assert.Equal(t, "collections", response.Family)
	assert.Equal(t, 2, response.TotalItems)
	assert.Equal(t, 1, response.ByStatus["auto_matched"])
	assert.Equal(t, 1, response.ByStatus["unknown"])
	assert.Equal(t, "100000.00", response.TotalAmount)
	assert.Equal(t, "50000.00", response.MatchedAmount)
	assert.Equal(t, 0.9, response.MeanConfidence)
}

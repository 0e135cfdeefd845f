package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/api/handlers"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/investment"
)

func TestInvestmentsHandler_Suggest(t *testing.T) {
	advisor := investment.NewAdvisor(investment.NewCalendar(nil), nil, nil)
	defaultMinimum := decimal.NewFromInt(500_000)

	t.Run("returns ranked suggestions", func(t *testing.T) {
		handler := handlers.NewInvestmentsHandler(advisor, defaultMinimum)

		body := jsonBody(t, dto.InvestmentRequest{
			Balance: decimal.NewFromInt(10_000_000),
			Buffer:  decimal.NewFromInt(1_000_000),
			AsOf:    time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
			Obligations: []dto.ObligationPayload{
				{
					Description: "supplier run",
					Amount:      decimal.NewFromInt(2_000_000),
					DueDate:     time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
				},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/investments/suggestions", body)
		rec := httptest.NewRecorder()

		handler.Suggest(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.SuggestionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		require.Equal(t, 3, response.Count)
		assert.Equal(t, "90-day aggressive", response.Suggestions[0].Scenario.Name)
		assert.True(t, response.Suggestions[0].ProjectedReturn.GreaterThan(
			response.Suggestions[1].ProjectedReturn))
	})

	t.Run("applies the configured minimum when the request omits one", func(t *testing.T) {
		handler := handlers.NewInvestmentsHandler(advisor, decimal.NewFromInt(5_000_000))

		body := jsonBody(t, dto.InvestmentRequest{
			Balance: decimal.NewFromInt(1_000_000),
			AsOf:    time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		})
		req := httptest.NewRequest(http.MethodPost, "/api/investments/suggestions", body)
		rec := httptest.NewRecorder()

		handler.Suggest(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.SuggestionListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 0, response.Count)
	})

	t.Run("rejects a body without a balance", func(t *testing.T) {
		handler := handlers.NewInvestmentsHandler(advisor, defaultMinimum)

		req := httptest.NewRequest(http.MethodPost, "/api/investments/suggestions",
			strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		handler.Suggest(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var response dto.APIError
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, dto.ErrCodeValidation, response.Code)
	})
}

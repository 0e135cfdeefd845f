package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/investment"
)

// InvestmentsHandler handles time-deposit suggestion requests. It has no
// repository: suggestions are computed from the request alone.
type InvestmentsHandler struct {
	*Base
	advisor        *investment.Advisor
	defaultMinimum decimal.Decimal
}

// NewInvestmentsHandler creates a new investments handler.
func NewInvestmentsHandler(advisor *investment.Advisor, defaultMinimum decimal.Decimal) *InvestmentsHandler {
	return &InvestmentsHandler{
		Base:           &Base{},
		advisor:        advisor,
		defaultMinimum: defaultMinimum,
	}
}

// Suggest handles POST /api/investments/suggestions.
func (h *InvestmentsHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req dto.InvestmentRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	suggestions := h.advisor.Suggest(req.ToDomain(h.defaultMinimum))

	h.WriteJSON(w, http.StatusOK, dto.SuggestionListResponse{
		Suggestions: suggestions,
		Count:       len(suggestions),
	})
}

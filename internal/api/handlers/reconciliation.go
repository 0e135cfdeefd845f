package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/application/reconciliation"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// ReconciliationHandler handles family-scoped reconciliation operations.
type ReconciliationHandler struct {
	*Base
	engine *reconciliation.Engine
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(repo storage.Repository, engine *reconciliation.Engine) *ReconciliationHandler {
	return &ReconciliationHandler{
		Base:   NewBase(repo),
		engine: engine,
	}
}

// Extract handles POST /api/reconciliation/{family}/extract - runs a batch
// extraction over the posted transactions.
func (h *ReconciliationHandler) Extract(w http.ResponseWriter, r *http.Request) {
	family, ok := h.parseFamily(w, r)
	if !ok {
		return
	}

	var req dto.ExtractRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	txs := make([]treasury.Transaction, 0, len(req.Transactions))
	for _, payload := range req.Transactions {
		txs = append(txs, payload.ToDomain(req.AccountID))
	}

	result, err := h.engine.Extract(r.Context(), family, txs, req.AccountID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToExtractResponse(result))
}

// Summary handles GET /api/reconciliation/{family}/summary.
func (h *ReconciliationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	family, ok := h.parseFamily(w, r)
	if !ok {
		return
	}

	summary, err := h.engine.Summary(family)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToSummaryResponse(summary))
}

func (h *ReconciliationHandler) parseFamily(w http.ResponseWriter, r *http.Request) (treasury.Family, bool) {
	raw := chi.URLParam(r, "family")
	family, err := treasury.ParseFamily(raw)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return "", false
	}
	return family, true
}

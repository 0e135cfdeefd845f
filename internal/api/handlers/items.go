package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/application/reconciliation"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// ItemsHandler handles reconciliation item HTTP requests.
type ItemsHandler struct {
	*Base
	engine *reconciliation.Engine
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(repo storage.Repository, engine *reconciliation.Engine) *ItemsHandler {
	return &ItemsHandler{
		Base:   NewBase(repo),
		engine: engine,
	}
}

// List handles GET /api/items - returns items matching the query filters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.DefaultItemListParams()
	params.Limit = ParseIntParam(r, "limit", params.Limit)
	params.Offset = ParseIntParam(r, "offset", params.Offset)

	filters := storage.ItemFilters{
		AccountID: r.URL.Query().Get("account_id"),
		From:      ParseTimeParam(r, "from"),
		To:        ParseTimeParam(r, "to"),
		Limit:     params.Limit,
		Offset:    params.Offset,
	}

	if raw := r.URL.Query().Get("family"); raw != "" {
		family, err := treasury.ParseFamily(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
			return
		}
		filters.Family = family
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filters.Status = treasury.Status(raw)
	}

	items, err := h.engine.ListItems(filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.ItemListResponse{
		Items:  make([]dto.ItemResponse, 0, len(items)),
		Count:  len(items),
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	for _, item := range items {
		response.Items = append(response.Items, dto.ToItemResponse(item))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/items/{id} - returns a single item.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("item ID is required"))
		return
	}

	item, err := h.engine.GetItem(id)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToItemResponse(item))
}

// Reconcile handles POST /api/items/{id}/reconcile - runs one automatic
// matching pass against the current candidate sets.
func (h *ItemsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("item ID is required"))
		return
	}

	outcome, err := h.engine.PerformAutoReconciliation(r.Context(), id)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	item, err := h.engine.GetItem(id)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToOutcomeResponse(outcome, item))
}

// Match handles POST /api/items/{id}/match - applies a human-chosen match.
func (h *ItemsHandler) Match(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("item ID is required"))
		return
	}

	var req dto.ManualReconcileRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	kind, err := treasury.ParseRecordKind(req.Kind)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	item, err := h.engine.PerformManualReconciliation(r.Context(), id, req.RecordID, kind, req.Actor, req.Notes)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToItemResponse(item))
}

// Confirm handles POST /api/items/{id}/confirm - closes out a matched item.
func (h *ItemsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("item ID is required"))
		return
	}

	var req dto.ConfirmRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.engine.Confirm(r.Context(), id, req.VerifiedBy, req.Observations)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ToItemResponse(item))
}

// Audit handles GET /api/items/{id}/audit - returns the item's audit trail.
func (h *ItemsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("item ID is required"))
		return
	}

	entries, err := h.repo.ListAuditByEntity("reconciliation_item", id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.AuditTrailResponse{
		Entries: make([]dto.AuditEntryResponse, 0, len(entries)),
		Count:   len(entries),
	}
	for _, entry := range entries {
		response.Entries = append(response.Entries, dto.ToAuditEntryResponse(entry))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

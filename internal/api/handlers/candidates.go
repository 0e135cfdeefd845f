package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// CandidatesHandler handles reference record HTTP requests.
type CandidatesHandler struct {
	*Base
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(repo storage.Repository) *CandidatesHandler {
	return &CandidatesHandler{Base: NewBase(repo)}
}

// List handles GET /api/candidates/{kind} - returns all records of a kind.
func (h *CandidatesHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := treasury.ParseRecordKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	records, err := h.repo.GetCandidates(kind)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.CandidateListResponse{
		Kind:       string(kind),
		Candidates: make([]dto.CandidateResponse, 0, len(records)),
		Count:      len(records),
	}
	for _, record := range records {
		response.Candidates = append(response.Candidates, dto.ToCandidateResponse(record))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Upsert handles POST /api/candidates - stores one reference record.
func (h *CandidatesHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req dto.CandidateRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	kind, err := treasury.ParseRecordKind(req.Kind)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	record, err := storage.DecodeRecord(kind, string(req.Record))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid record payload: "+err.Error()))
		return
	}
	if record.RecordID() == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("record id is required"))
		return
	}

	if err := h.repo.UpsertCandidate(record); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.ToCandidateResponse(record))
}

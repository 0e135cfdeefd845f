package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	repo storage.Repository
}

// NewBase creates a new base handler with the given repository.
func NewBase(repo storage.Repository) *Base {
	return &Base{repo: repo}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteDomainError maps domain sentinel errors to HTTP responses: missing
// entities become 404, lifecycle violations 409, everything else 500.
func (b *Base) WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, treasury.ErrItemNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("item"))
	case errors.Is(err, treasury.ErrCandidateNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("candidate record"))
	case errors.Is(err, treasury.ErrInvalidTransition):
		b.WriteError(w, http.StatusConflict, dto.NewAPIError(dto.ErrCodeConflict, err.Error()))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// DecodeAndValidate decodes a JSON request body and runs tag validation.
// A false return means the error response has already been written.
func (b *Base) DecodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return false
	}
	if err := dto.Validate(v); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return false
	}
	return true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseTimeParam parses an RFC3339 or date-only query parameter. The zero
// time means absent or unparseable.
func ParseTimeParam(r *http.Request, name string) time.Time {
	val := r.URL.Query().Get(name)
	if val == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t
	}
	return time.Time{}
}

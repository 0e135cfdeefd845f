package dto

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/investment"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
)

var validate = validator.New()

// Validate runs struct tag validation on a request body.
func Validate(v any) error {
	return validate.Struct(v)
}

// TransactionPayload is one bank statement line in an extraction request.
type TransactionPayload struct {
	ID          string          `json:"id" validate:"required"`
	Date        time.Time       `json:"date" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	Reference   string          `json:"reference,omitempty"`
	AccountID   string          `json:"account_id,omitempty"`
}

// ToDomain converts the payload to a domain transaction.
func (t TransactionPayload) ToDomain(defaultAccountID string) treasury.Transaction {
	accountID := t.AccountID
	if accountID == "" {
		accountID = defaultAccountID
	}
	return treasury.Transaction{
		ID:          t.ID,
		Date:        t.Date,
		Description: t.Description,
		Debit:       t.Debit,
		Credit:      t.Credit,
		Balance:     t.Balance,
		Reference:   t.Reference,
		AccountID:   accountID,
	}
}

// ExtractRequest is the body of POST /api/reconciliation/{family}/extract.
type ExtractRequest struct {
	AccountID    string               `json:"account_id"`
	Transactions []TransactionPayload `json:"transactions" validate:"required,min=1,dive"`
}

// ManualReconcileRequest is the body of POST /api/items/{id}/match.
type ManualReconcileRequest struct {
	RecordID string `json:"record_id" validate:"required"`
	Kind     string `json:"kind" validate:"required"`
	Actor    string `json:"actor" validate:"required"`
	Notes    string `json:"notes,omitempty"`
}

// ConfirmRequest is the body of POST /api/items/{id}/confirm.
type ConfirmRequest struct {
	VerifiedBy   string `json:"verified_by" validate:"required"`
	Observations string `json:"observations,omitempty"`
}

// CandidateRequest is the body of POST /api/candidates. Record carries the
// kind-specific fields and is decoded by the storage layer's record codec.
type CandidateRequest struct {
	Kind   string          `json:"kind" validate:"required"`
	Record json.RawMessage `json:"record" validate:"required"`
}

// ObligationPayload is one upcoming outflow in an investment request.
type ObligationPayload struct {
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	DueDate     time.Time       `json:"due_date" validate:"required"`
	Critical    bool            `json:"critical"`
}

// InvestmentRequest is the body of POST /api/investments/suggestions.
type InvestmentRequest struct {
	Balance           decimal.Decimal     `json:"balance" validate:"required"`
	Buffer            decimal.Decimal     `json:"buffer"`
	MinimumInvestment decimal.Decimal     `json:"minimum_investment"`
	AsOf              time.Time           `json:"as_of,omitempty"`
	Obligations       []ObligationPayload `json:"obligations" validate:"dive"`
}

// ToDomain converts the request to an advisor request. The configured
// minimum applies when the request leaves it zero.
func (r InvestmentRequest) ToDomain(defaultMinimum decimal.Decimal) investment.Request {
	minimum := r.MinimumInvestment
	if minimum.IsZero() {
		minimum = defaultMinimum
	}
	obligations := make([]investment.Obligation, 0, len(r.Obligations))
	for _, ob := range r.Obligations {
		obligations = append(obligations, investment.Obligation{
			Description: ob.Description,
			Amount:      ob.Amount,
			DueDate:     ob.DueDate,
			Critical:    ob.Critical,
		})
	}
	return investment.Request{
		Balance:           r.Balance,
		Buffer:            r.Buffer,
		MinimumInvestment: minimum,
		Obligations:       obligations,
		AsOf:              r.AsOf,
	}
}

// ItemListParams represents query parameters for listing items.
type ItemListParams struct {
	Family    string `json:"family"`
	Status    string `json:"status"`
	AccountID string `json:"account_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// DefaultItemListParams returns default values for item list params.
func DefaultItemListParams() ItemListParams {
	return ItemListParams{
		Limit:  50,
		Offset: 0,
	}
}

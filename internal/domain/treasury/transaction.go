// Package treasury defines the core types of the reconciliation engine:
// bank transactions, the reference records they are matched against, and
// the reconciliation item that tracks a transaction's matching lifecycle.
package treasury

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single bank statement line item. Immutable once extracted.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	Reference   string          `json:"reference,omitempty"`
	AccountID   string          `json:"account_id"`
}

// Amount returns the signed amount of the transaction: credits positive,
// debits negative. Statements carry debit and credit in separate columns,
// at most one of which is non-zero.
func (t Transaction) Amount() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}

// Magnitude returns the absolute value of the transaction amount.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Amount().Abs()
}

// IsCredit reports whether the transaction is an inflow.
func (t Transaction) IsCredit() bool {
	return t.Credit.IsPositive()
}

// IsDebit reports whether the transaction is an outflow.
func (t Transaction) IsDebit() bool {
	return t.Debit.IsPositive()
}

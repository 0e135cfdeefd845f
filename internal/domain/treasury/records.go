package treasury

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind tags the concrete variant of a reference record.
type RecordKind string

const (
	KindAgingEntry         RecordKind = "aging_entry"
	KindForecastEntry      RecordKind = "forecast_entry"
	KindPayrollEntry       RecordKind = "payroll_entry"
	KindIntercompanyRecord RecordKind = "intercompany_record"
	KindCashForecastEntry  RecordKind = "cash_forecast_entry"
	KindDepositPlacement   RecordKind = "deposit_placement"
)

// AllRecordKinds lists every known kind in a stable order.
var AllRecordKinds = []RecordKind{
	KindAgingEntry, KindForecastEntry, KindPayrollEntry,
	KindIntercompanyRecord, KindCashForecastEntry, KindDepositPlacement,
}

// ParseRecordKind validates a record kind string from external input.
func ParseRecordKind(s string) (RecordKind, error) {
	k := RecordKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRecordKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// ConfidenceTier grades how firm a forecast is.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// ReferenceRecord is the read-only surface every matchable business record
// exposes to the scoring and matching layers. Ledger-backed records (aging,
// payroll, intercompany, deposits) are authoritative; forecast-backed records
// are soft predictions.
type ReferenceRecord interface {
	RecordID() string
	Kind() RecordKind

	// Amount is the expected movement amount, always positive.
	Amount() decimal.Decimal

	// RelevantDate is the due/expected/pay/maturity date of the record.
	RelevantDate() time.Time

	// Label is the identifying counterparty text (customer, employee, bank).
	Label() string

	// LedgerBacked reports whether the record comes from an authoritative
	// ledger rather than a forecast.
	LedgerBacked() bool
}

// Tiered is implemented by forecast-backed records that carry a confidence
// tier. The scorer grants a small bonus for firmer tiers.
type Tiered interface {
	Tier() ConfidenceTier
}

// AgingEntry is an open receivable from the AR aging report.
type AgingEntry struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customer_name"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	DueDate       time.Time       `json:"due_date"`
}

func (a AgingEntry) RecordID() string           { return a.ID }
func (a AgingEntry) Kind() RecordKind           { return KindAgingEntry }
func (a AgingEntry) Amount() decimal.Decimal    { return a.AmountDue }
func (a AgingEntry) RelevantDate() time.Time    { return a.DueDate }
func (a AgingEntry) Label() string              { return a.CustomerName }
func (a AgingEntry) LedgerBacked() bool         { return true }
func (a AgingEntry) InvoiceReference() string   { return a.InvoiceNumber }

// ForecastEntry is a predicted customer payment from the collections forecast.
type ForecastEntry struct {
	ID             string          `json:"id"`
	CustomerName   string          `json:"customer_name"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ExpectedDate   time.Time       `json:"expected_date"`
	Confidence     ConfidenceTier  `json:"confidence"`
}

func (f ForecastEntry) RecordID() string        { return f.ID }
func (f ForecastEntry) Kind() RecordKind        { return KindForecastEntry }
func (f ForecastEntry) Amount() decimal.Decimal { return f.ExpectedAmount }
func (f ForecastEntry) RelevantDate() time.Time { return f.ExpectedDate }
func (f ForecastEntry) Label() string           { return f.CustomerName }
func (f ForecastEntry) LedgerBacked() bool      { return false }
func (f ForecastEntry) Tier() ConfidenceTier    { return f.Confidence }

// PayrollEntry is a net-pay line from the payroll register.
type PayrollEntry struct {
	ID           string          `json:"id"`
	EmployeeName string          `json:"employee_name"`
	EmployeeID   string          `json:"employee_id,omitempty"`
	NetPay       decimal.Decimal `json:"net_pay"`
	PayDate      time.Time       `json:"pay_date"`
}

func (p PayrollEntry) RecordID() string        { return p.ID }
func (p PayrollEntry) Kind() RecordKind        { return KindPayrollEntry }
func (p PayrollEntry) Amount() decimal.Decimal { return p.NetPay }
func (p PayrollEntry) RelevantDate() time.Time { return p.PayDate }
func (p PayrollEntry) Label() string           { return p.EmployeeName }
func (p PayrollEntry) LedgerBacked() bool      { return true }

// IntercompanyRecord is a planned transfer between group entities.
type IntercompanyRecord struct {
	ID              string          `json:"id"`
	Counterparty    string          `json:"counterparty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	TransferAmount  decimal.Decimal `json:"transfer_amount"`
	TransferDate    time.Time       `json:"transfer_date"`
}

func (r IntercompanyRecord) RecordID() string        { return r.ID }
func (r IntercompanyRecord) Kind() RecordKind        { return KindIntercompanyRecord }
func (r IntercompanyRecord) Amount() decimal.Decimal { return r.TransferAmount }
func (r IntercompanyRecord) RelevantDate() time.Time { return r.TransferDate }
func (r IntercompanyRecord) Label() string           { return r.Counterparty }
func (r IntercompanyRecord) LedgerBacked() bool      { return true }

// CashForecastEntry is a generic cash movement prediction used by families
// that have no dedicated forecast source.
type CashForecastEntry struct {
	ID             string          `json:"id"`
	Description    string          `json:"description"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ExpectedDate   time.Time       `json:"expected_date"`
	Confidence     ConfidenceTier  `json:"confidence"`
}

func (c CashForecastEntry) RecordID() string        { return c.ID }
func (c CashForecastEntry) Kind() RecordKind        { return KindCashForecastEntry }
func (c CashForecastEntry) Amount() decimal.Decimal { return c.ExpectedAmount }
func (c CashForecastEntry) RelevantDate() time.Time { return c.ExpectedDate }
func (c CashForecastEntry) Label() string           { return c.Description }
func (c CashForecastEntry) LedgerBacked() bool      { return false }
func (c CashForecastEntry) Tier() ConfidenceTier    { return c.Confidence }

// DepositPlacement is an outstanding time-deposit placement; incoming
// principal+interest credits reconcile against it at maturity.
type DepositPlacement struct {
	ID           string          `json:"id"`
	BankName     string          `json:"bank_name"`
	Principal    decimal.Decimal `json:"principal"`
	AnnualRate   decimal.Decimal `json:"annual_rate"`
	MaturityDate time.Time       `json:"maturity_date"`
}

func (d DepositPlacement) RecordID() string        { return d.ID }
func (d DepositPlacement) Kind() RecordKind        { return KindDepositPlacement }
func (d DepositPlacement) Amount() decimal.Decimal { return d.Principal }
func (d DepositPlacement) RelevantDate() time.Time { return d.MaturityDate }
func (d DepositPlacement) Label() string           { return d.BankName }
func (d DepositPlacement) LedgerBacked() bool      { return true }

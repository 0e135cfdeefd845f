package treasury

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Family identifies a reconciliation stream. Each family filters its own
// slice of the bank statement and matches against its own reference records.
type Family string

const (
	FamilyCollections  Family = "collections"
	FamilyPayroll      Family = "payroll"
	FamilyIntercompany Family = "intercompany"
	FamilyDeposits     Family = "deposits"
)

// AllFamilies lists every known family in a stable order.
var AllFamilies = []Family{FamilyCollections, FamilyPayroll, FamilyIntercompany, FamilyDeposits}

// ParseFamily validates a family string from external input.
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFamilies {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown reconciliation family %q", s)
}

// CandidateKinds returns the record kinds the family matches against, in
// evaluation priority order: ledger-backed kinds first, forecasts second.
// The matcher stops at the first kind that produces an accepted match.
func (f Family) CandidateKinds() []RecordKind {
	switch f {
	case FamilyCollections:
		return []RecordKind{KindAgingEntry, KindForecastEntry}
	case FamilyPayroll:
		return []RecordKind{KindPayrollEntry, KindCashForecastEntry}
	case FamilyIntercompany:
		return []RecordKind{KindIntercompanyRecord, KindCashForecastEntry}
	case FamilyDeposits:
		return []RecordKind{KindDepositPlacement, KindCashForecastEntry}
	default:
		return nil
	}
}

// intercompanyFloor is the minimum magnitude for a transaction to be treated
// as a candidate intercompany transfer.
var intercompanyFloor = decimal.NewFromInt(100_000)

var (
	payrollKeywords      = []string{"payroll", "salary", "salaries", "wages", "wps"}
	intercompanyKeywords = []string{"intercompany", "inter-company", "ico ", "internal transfer", "treasury transfer"}
	depositKeywords      = []string{"time deposit", "deposit maturity", "td maturity", "fixed deposit"}
)

// AppliesTo reports whether a transaction belongs to the family's extraction
// scope. Collections takes every credit; the remaining families use keyword
// heuristics over the statement description, and intercompany additionally
// requires a large amount.
func (f Family) AppliesTo(tx Transaction) bool {
	desc := strings.ToLower(tx.Description)
	switch f {
	case FamilyCollections:
		return tx.IsCredit()
	case FamilyPayroll:
		return tx.IsDebit() && containsAny(desc, payrollKeywords)
	case FamilyIntercompany:
		return tx.Magnitude().GreaterThanOrEqual(intercompanyFloor) && containsAny(desc, intercompanyKeywords)
	case FamilyDeposits:
		return tx.IsCredit() && containsAny(desc, depositKeywords)
	default:
		return false
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

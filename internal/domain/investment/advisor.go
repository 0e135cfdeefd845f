// Package investment ranks time-deposit placement suggestions against
// liquidity constraints and a weekend-aware business calendar.
//
// This is a planning output only: it never touches reconciliation state.
package investment

import (
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Obligation is an upcoming cash outflow the balance must cover.
type Obligation struct {
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Critical    bool            `json:"critical"`
}

// Scenario is one (term, risk tier) placement option. Percent is the share
// of the free balance the scenario would place.
type Scenario struct {
	Name       string          `json:"name"`
	TermDays   int             `json:"term_days"`
	RiskTier   string          `json:"risk_tier"`
	Percent    decimal.Decimal `json:"percent"`
	AnnualRate decimal.Decimal `json:"annual_rate"`
}

// DefaultScenarios returns the standard placement ladder.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "30-day conservative", TermDays: 30, RiskTier: "conservative", Percent: decimal.NewFromFloat(0.50), AnnualRate: decimal.NewFromFloat(0.045)},
		{Name: "60-day balanced", TermDays: 60, RiskTier: "balanced", Percent: decimal.NewFromFloat(0.65), AnnualRate: decimal.NewFromFloat(0.050)},
		{Name: "90-day aggressive", TermDays: 90, RiskTier: "aggressive", Percent: decimal.NewFromFloat(0.80), AnnualRate: decimal.NewFromFloat(0.055)},
	}
}

// Request carries the liquidity inputs for one suggestion run.
type Request struct {
	Balance           decimal.Decimal `json:"balance"`
	Buffer            decimal.Decimal `json:"buffer"`
	MinimumInvestment decimal.Decimal `json:"minimum_investment"`
	Obligations       []Obligation    `json:"obligations"`
	AsOf              time.Time       `json:"as_of"`
}

// Alternate is the shorter-term fallback attached when a scenario's maturity
// lands on a non-banking day.
type Alternate struct {
	TermDays        int             `json:"term_days"`
	MaturityDate    time.Time       `json:"maturity_date"`
	ProjectedReturn decimal.Decimal `json:"projected_return"`
}

// Suggestion is a ranked placement recommendation.
type Suggestion struct {
	Scenario             Scenario        `json:"scenario"`
	InvestableAmount     decimal.Decimal `json:"investable_amount"`
	ProjectedReturn      decimal.Decimal `json:"projected_return"`
	MaturityDate         time.Time       `json:"maturity_date"`
	MaturityOnNonBanking bool            `json:"maturity_on_non_banking_day"`
	Alternate            *Alternate      `json:"alternate,omitempty"`
	ObligationsInHorizon decimal.Decimal `json:"obligations_in_horizon"`
}

// Advisor produces placement suggestions.
type Advisor struct {
	calendar  *Calendar
	scenarios []Scenario
	logger    *slog.Logger
}

// NewAdvisor creates an advisor. Nil scenarios fall back to the default
// ladder.
func NewAdvisor(calendar *Calendar, scenarios []Scenario, logger *slog.Logger) *Advisor {
	if calendar == nil {
		calendar = NewCalendar(nil)
	}
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{calendar: calendar, scenarios: scenarios, logger: logger}
}

var daysPerYear = decimal.NewFromInt(365)

// Suggest evaluates every scenario against the request and returns the
// viable ones ranked by projected return, highest first. Scenarios whose
// investable amount falls below the minimum are rejected.
func (a *Advisor) Suggest(req Request) []Suggestion {
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	suggestions := make([]Suggestion, 0, len(a.scenarios))
	for _, scenario := range a.scenarios {
		horizon := asOf.AddDate(0, 0, scenario.TermDays)
		committed := a.obligationsWithin(req.Obligations, asOf, horizon)

		free := req.Balance.Sub(committed).Sub(req.Buffer)
		if free.IsNegative() {
			free = decimal.Zero
		}
		investable := free.Mul(scenario.Percent).Round(2)

		if investable.LessThan(req.MinimumInvestment) {
			a.logger.Debug("scenario rejected below minimum investment",
				"scenario", scenario.Name,
				"investable", investable.StringFixed(2),
				"minimum", req.MinimumInvestment.StringFixed(2))
			continue
		}

		suggestion := Suggestion{
			Scenario:             scenario,
			InvestableAmount:     investable,
			ProjectedReturn:      simpleInterest(investable, scenario.AnnualRate, scenario.TermDays),
			MaturityDate:         horizon,
			ObligationsInHorizon: committed,
		}

		if !a.calendar.IsBankingDay(horizon) {
			suggestion.MaturityOnNonBanking = true
			altMaturity := a.calendar.PreviousBankingDay(horizon)
			altTerm := int(altMaturity.Sub(asOf).Hours() / 24)
			suggestion.Alternate = &Alternate{
				TermDays:        altTerm,
				MaturityDate:    altMaturity,
				ProjectedReturn: simpleInterest(investable, scenario.AnnualRate, altTerm),
			}
		}

		suggestions = append(suggestions, suggestion)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].ProjectedReturn.GreaterThan(suggestions[j].ProjectedReturn)
	})

	return suggestions
}

// obligationsWithin sums obligations due in (asOf, horizon].
func (a *Advisor) obligationsWithin(obligations []Obligation, asOf, horizon time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, ob := range obligations {
		if ob.DueDate.After(horizon) {
			continue
		}
		if ob.DueDate.Before(asOf) && !ob.Critical {
			// Past non-critical obligations are assumed settled.
			continue
		}
		total = total.Add(ob.Amount)
	}
	return total
}

// simpleInterest computes principal * rate * term/365, rounded to cents.
func simpleInterest(principal, annualRate decimal.Decimal, termDays int) decimal.Decimal {
	return principal.
		Mul(annualRate).
		Mul(decimal.NewFromInt(int64(termDays))).
		Div(daysPerYear).
		Round(2)
}

// Package scoring computes the confidence score of a (transaction, candidate)
// pair as a capped sum of independent factor contributions: amount proximity,
// counterparty text overlap, date proximity, and a small forecast-tier bonus.
//
// Scores are always in [0, 1]. The reasons returned alongside a score are
// explanatory only; they feed the audit trail and the review UI, never
// further logic.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
)

// Config holds the factor weights. The shape is fixed; weights are tunable.
type Config struct {
	// AmountTolerance is the absolute difference treated as an exact match.
	AmountTolerance decimal.Decimal

	AmountExactWeight  float64 // |diff| <= AmountTolerance
	AmountCloseWeight  float64 // within CloseBand (relative)
	AmountLooseWeight  float64 // within LooseBand (relative)
	AmountCloseBand    float64 // e.g. 0.05
	AmountLooseBand    float64 // e.g. 0.10

	TextOverlapWeight    float64 // label substring / token overlap
	ReferenceBonusWeight float64 // invoice or reference number hit

	// DateBands maps a maximum day distance to its bonus, evaluated smallest
	// band first.
	DateBands []DateBand

	// TierBonuses apply only to forecast-backed candidates. Ledger-backed
	// records are authoritative and get no tier bonus.
	TierBonuses map[treasury.ConfidenceTier]float64
}

// DateBand grants Bonus when the day distance is at most MaxDays.
type DateBand struct {
	MaxDays int
	Bonus   float64
}

// DefaultConfig returns the production weights.
func DefaultConfig() Config {
	return Config{
		AmountTolerance:      decimal.NewFromFloat(0.01),
		AmountExactWeight:    0.60,
		AmountCloseWeight:    0.30,
		AmountLooseWeight:    0.15,
		AmountCloseBand:      0.05,
		AmountLooseBand:      0.10,
		TextOverlapWeight:    0.30,
		ReferenceBonusWeight: 0.10,
		DateBands: []DateBand{
			{MaxDays: 1, Bonus: 0.10},
			{MaxDays: 3, Bonus: 0.07},
			{MaxDays: 7, Bonus: 0.05},
			{MaxDays: 30, Bonus: 0.02},
		},
		TierBonuses: map[treasury.ConfidenceTier]float64{
			treasury.TierHigh:   0.05,
			treasury.TierMedium: 0.03,
			treasury.TierLow:    0.01,
		},
	}
}

// Score is a scored candidate with its explanation.
type Score struct {
	Value   float64
	Reasons []string
}

// Scorer evaluates candidates against transactions.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given config.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the confidence score for a candidate. The result is clamped
// to [0, 1] and never negative.
func (s *Scorer) Score(tx treasury.Transaction, candidate treasury.ReferenceRecord) Score {
	var (
		value   float64
		reasons []string
	)

	add := func(v float64, reason string) {
		value += v
		reasons = append(reasons, reason)
	}

	// Amount proximity.
	txAmount := tx.Magnitude()
	candAmount := candidate.Amount().Abs()
	diff := txAmount.Sub(candAmount).Abs()
	switch {
	case diff.LessThanOrEqual(s.cfg.AmountTolerance):
		add(s.cfg.AmountExactWeight, fmt.Sprintf("amount matches exactly (%s)", candAmount.StringFixed(2)))
	case withinBand(diff, candAmount, s.cfg.AmountCloseBand):
		add(s.cfg.AmountCloseWeight, fmt.Sprintf("amount within %.0f%% (diff %s)", s.cfg.AmountCloseBand*100, diff.StringFixed(2)))
	case withinBand(diff, candAmount, s.cfg.AmountLooseBand):
		add(s.cfg.AmountLooseWeight, fmt.Sprintf("amount within %.0f%% (diff %s)", s.cfg.AmountLooseBand*100, diff.StringFixed(2)))
	}

	// Identity / text overlap.
	if overlaps(tx.Description, candidate.Label()) {
		add(s.cfg.TextOverlapWeight, fmt.Sprintf("description mentions %q", candidate.Label()))
	}
	if ref := candidateReference(candidate); ref != "" && containsFold(tx.Description+" "+tx.Reference, ref) {
		add(s.cfg.ReferenceBonusWeight, fmt.Sprintf("reference %q found", ref))
	}

	// Date proximity.
	days := DayDistance(tx.Date, candidate.RelevantDate())
	for _, band := range s.cfg.DateBands {
		if days <= band.MaxDays {
			add(band.Bonus, fmt.Sprintf("dates within %d day(s)", band.MaxDays))
			break
		}
	}

	// Forecast tier bonus.
	if tiered, ok := candidate.(treasury.Tiered); ok && !candidate.LedgerBacked() {
		if bonus, ok := s.cfg.TierBonuses[tiered.Tier()]; ok {
			add(bonus, fmt.Sprintf("forecast confidence %s", tiered.Tier()))
		}
	}

	if value > 1.0 {
		value = 1.0
	}
	if value < 0 {
		value = 0
	}

	return Score{Value: value, Reasons: reasons}
}

// DayDistance returns the absolute whole-day distance between two dates,
// ignoring the time-of-day component.
func DayDistance(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(ad.Sub(bd).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// withinBand reports whether diff is at most band*reference.
func withinBand(diff, reference decimal.Decimal, band float64) bool {
	if reference.IsZero() {
		return false
	}
	limit := reference.Mul(decimal.NewFromFloat(band))
	return diff.LessThanOrEqual(limit)
}

// overlaps reports a case-insensitive identity hit: either the whole label
// appears in the description, or at least half of the label's tokens do.
func overlaps(description, label string) bool {
	desc := strings.ToLower(description)
	lbl := strings.ToLower(strings.TrimSpace(label))
	if lbl == "" {
		return false
	}
	if strings.Contains(desc, lbl) {
		return true
	}

	tokens := strings.Fields(lbl)
	if len(tokens) == 0 {
		return false
	}
	hits := 0
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(desc, tok) {
			hits++
		}
	}
	return hits*2 >= len(tokens)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// candidateReference extracts an invoice/reference number when the variant
// carries one.
func candidateReference(candidate treasury.ReferenceRecord) string {
	switch c := candidate.(type) {
	case treasury.AgingEntry:
		return c.InvoiceNumber
	case treasury.IntercompanyRecord:
		return c.ReferenceNumber
	default:
		return ""
	}
}

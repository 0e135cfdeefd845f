// Package matcher selects the best reference record for a bank transaction
// and classifies the result against per-kind auto-accept thresholds.
//
// Candidate pools are evaluated in the family's priority order (ledger-backed
// records first, forecasts second); the first pool that yields an accepted
// match short-circuits the rest.
package matcher

import (
	"strings"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/scoring"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
)

// OutcomeKind classifies a matching result.
type OutcomeKind string

const (
	// Accepted means the winning score met the kind's auto-accept threshold.
	Accepted OutcomeKind = "accepted"
	// NeedsReview means the best candidate scored above zero but below the
	// threshold; it is surfaced for human review.
	NeedsReview OutcomeKind = "needs_review"
	// NoMatch means every candidate scored zero, or there were none.
	NoMatch OutcomeKind = "no_match"
)

// Outcome is the result of matching one transaction.
type Outcome struct {
	Kind      OutcomeKind
	Candidate treasury.ReferenceRecord // nil for NoMatch
	Score     float64
	Reasons   []string
}

// Config holds per-record-kind auto-accept thresholds. Ledger-backed kinds
// demand higher confidence than soft forecasts.
type Config struct {
	Thresholds map[treasury.RecordKind]float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Thresholds: map[treasury.RecordKind]float64{
			treasury.KindAgingEntry:         0.85,
			treasury.KindPayrollEntry:       0.85,
			treasury.KindIntercompanyRecord: 0.80,
			treasury.KindDepositPlacement:   0.80,
			treasury.KindForecastEntry:      0.70,
			treasury.KindCashForecastEntry:  0.70,
		},
	}
}

// Matcher evaluates candidate pools with a scorer.
type Matcher struct {
	scorer *scoring.Scorer
	config Config
}

// NewMatcher creates a matcher.
func NewMatcher(scorer *scoring.Scorer, config Config) *Matcher {
	return &Matcher{scorer: scorer, config: config}
}

// Match scores every candidate in a single pool and returns the outcome for
// the best one under the deterministic tie-break rule.
func (m *Matcher) Match(tx treasury.Transaction, candidates []treasury.ReferenceRecord) Outcome {
	var (
		best      treasury.ReferenceRecord
		bestScore scoring.Score
		bestDays  int
	)

	for _, candidate := range candidates {
		score := m.scorer.Score(tx, candidate)
		if score.Value <= 0 {
			continue
		}
		days := scoring.DayDistance(tx.Date, candidate.RelevantDate())
		if best == nil || better(score.Value, days, candidate, bestScore.Value, bestDays, best) {
			best = candidate
			bestScore = score
			bestDays = days
		}
	}

	if best == nil {
		return Outcome{Kind: NoMatch}
	}

	kind := NeedsReview
	if bestScore.Value >= m.threshold(best.Kind()) {
		kind = Accepted
	}

	return Outcome{
		Kind:      kind,
		Candidate: best,
		Score:     bestScore.Value,
		Reasons:   bestScore.Reasons,
	}
}

// MatchPools evaluates pools in order and short-circuits on the first
// accepted outcome. When no pool accepts, the best non-empty outcome across
// all pools is returned so reviewers still see the strongest candidate.
func (m *Matcher) MatchPools(tx treasury.Transaction, pools [][]treasury.ReferenceRecord) Outcome {
	best := Outcome{Kind: NoMatch}

	for _, pool := range pools {
		outcome := m.Match(tx, pool)
		if outcome.Kind == Accepted {
			return outcome
		}
		if outcome.Kind == NeedsReview && (best.Kind == NoMatch || outcome.Score > best.Score) {
			best = outcome
		}
	}

	return best
}

func (m *Matcher) threshold(kind treasury.RecordKind) float64 {
	if t, ok := m.config.Thresholds[kind]; ok {
		return t
	}
	// Unknown kinds are held to the strictest bar.
	return 0.85
}

// better implements the exact tie-break ordering: higher score wins; on equal
// scores prefer the smaller date distance, then ledger-backed over
// forecast-backed, then the lexically smallest record ID.
func better(score float64, days int, candidate treasury.ReferenceRecord,
	bestScore float64, bestDays int, best treasury.ReferenceRecord) bool {
	if score != bestScore {
		return score > bestScore
	}
	if days != bestDays {
		return days < bestDays
	}
	if candidate.LedgerBacked() != best.LedgerBacked() {
		return candidate.LedgerBacked()
	}
	return strings.Compare(candidate.RecordID(), best.RecordID()) < 0
}

// Package classify assigns a category tag to bank transaction descriptions.
//
// Strategies implement a uniform contract and are tried in priority order
// until one clears the confidence floor: cached result first, then the
// optional external classifier (hard timeout), then keyword rules. The rule
// strategy always produces an answer, so classification never hard-fails;
// an unreachable classifier degrades the result, not the engine.
package classify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Categories the engine understands. FallbackCategory is used when nothing
// else applies.
const (
	CategoryCustomerPayment = "customer_payment"
	CategoryPayroll         = "payroll"
	CategoryIntercompany    = "intercompany_transfer"
	CategoryDepositMaturity = "deposit_maturity"
	CategoryBankCharges     = "bank_charges"
	FallbackCategory        = "unclassified"
)

// ErrUnavailable signals that a strategy could not produce an answer. The
// chain recovers by moving on; it is never surfaced to callers.
var ErrUnavailable = errors.New("classification unavailable")

// Result is a category with the confidence the strategy assigns to it.
type Result struct {
	Category   string
	Confidence float64
	Strategy   string
}

// Strategy is one way of categorizing a description.
type Strategy interface {
	Name() string
	Categorize(ctx context.Context, description string) (Result, error)
}

// Chain tries strategies in order and returns the first result whose
// confidence clears the floor.
type Chain struct {
	strategies []Strategy
	floor      float64
	cache      Cache
	logger     *slog.Logger
}

// NewChain builds a classification chain. A nil cache disables caching.
func NewChain(strategies []Strategy, floor float64, cache Cache, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, floor: floor, cache: cache, logger: logger}
}

// Categorize resolves a category for the description. It always succeeds:
// when every strategy misses the floor, the fallback category is returned.
func (c *Chain) Categorize(ctx context.Context, description string) Result {
	key := normalize(description)

	if c.cache != nil {
		if category, ok := c.cache.Get(key); ok {
			return Result{Category: category, Confidence: 1.0, Strategy: "cache"}
		}
	}

	for _, strategy := range c.strategies {
		result, err := strategy.Categorize(ctx, description)
		if err != nil {
			c.logger.Warn("classification strategy failed, falling through",
				"strategy", strategy.Name(), "error", err)
			continue
		}
		if result.Confidence < c.floor {
			continue
		}
		result.Strategy = strategy.Name()
		if c.cache != nil && result.Category != FallbackCategory {
			c.cache.Set(key, result.Category)
		}
		return result
	}

	return Result{Category: FallbackCategory, Confidence: 0, Strategy: "fallback"}
}

// Classifier is the optional external text classifier. Implementations must
// respect the context deadline.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// ExternalStrategy consults a remote classifier under a hard timeout. Any
// error or overrun is reported as ErrUnavailable so the chain falls through.
type ExternalStrategy struct {
	client     Classifier
	timeout    time.Duration
	confidence float64
}

// NewExternalStrategy wraps a classifier client. Timeout defaults to 3s.
func NewExternalStrategy(client Classifier, timeout time.Duration) *ExternalStrategy {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ExternalStrategy{client: client, timeout: timeout, confidence: 0.9}
}

func (s *ExternalStrategy) Name() string { return "external" }

func (s *ExternalStrategy) Categorize(ctx context.Context, description string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	category, err := s.client.Classify(ctx, description)
	if err != nil {
		return Result{}, errors.Join(ErrUnavailable, err)
	}
	category = normalize(category)
	if category == "" {
		return Result{}, ErrUnavailable
	}
	return Result{Category: category, Confidence: s.confidence}, nil
}

// RuleStrategy categorizes by keyword patterns. It never errors.
type RuleStrategy struct{}

// NewRuleStrategy creates the pattern-based fallback strategy.
func NewRuleStrategy() *RuleStrategy { return &RuleStrategy{} }

func (s *RuleStrategy) Name() string { return "rules" }

var rulePatterns = []struct {
	category string
	keywords []string
}{
	{CategoryPayroll, []string{"payroll", "salary", "salaries", "wages", "wps"}},
	{CategoryIntercompany, []string{"intercompany", "inter-company", "internal transfer", "treasury transfer"}},
	{CategoryDepositMaturity, []string{"time deposit", "deposit maturity", "td maturity", "fixed deposit"}},
	{CategoryBankCharges, []string{"bank charge", "service charge", "commission", "swift fee"}},
	{CategoryCustomerPayment, []string{"payment", "invoice", "inv-", "remittance", "collection"}},
}

func (s *RuleStrategy) Categorize(_ context.Context, description string) (Result, error) {
	desc := strings.ToLower(description)
	for _, rule := range rulePatterns {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				return Result{Category: rule.category, Confidence: 0.75}, nil
			}
		}
	}
	return Result{Category: FallbackCategory, Confidence: 0.5}, nil
}

// normalize produces a stable cache key / category token.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

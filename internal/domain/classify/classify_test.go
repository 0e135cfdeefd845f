package classify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/classify"
)

// stubClassifier is a scriptable external classifier.
type stubClassifier struct {
	category string
	err      error
	delay    time.Duration
	calls    int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.category, s.err
}

func TestRuleStrategy(t *testing.T) {
	s := classify.NewRuleStrategy()
	ctx := context.Background()

	cases := []struct {
		description string
		want        string
	}{
		{"WPS SALARY BATCH MARCH", classify.CategoryPayroll},
		{"INTERCOMPANY SETTLEMENT Q1", classify.CategoryIntercompany},
		{"TIME DEPOSIT MATURITY 7788", classify.CategoryDepositMaturity},
		{"SWIFT FEE OUTGOING WIRE", classify.CategoryBankCharges},
		{"REMITTANCE ACME CORP INV-1001", classify.CategoryCustomerPayment},
		{"UNRECOGNIZABLE NARRATIVE", classify.FallbackCategory},
	}

	for _, tc := range cases {
		result, err := s.Categorize(ctx, tc.description)
		require.NoError(t, err, tc.description)
		assert.Equal(t, tc.want, result.Category, tc.description)
	}
}

func TestChain_Categorize(t *testing.T) {
	ctx := context.Background()

	t.Run("external result wins when available", func(t *testing.T) {
		client := &stubClassifier{category: "customer_payment"}
		chain := classify.NewChain([]classify.Strategy{
			classify.NewExternalStrategy(client, time.Second),
			classify.NewRuleStrategy(),
		}, 0.5, nil, nil)

		result := chain.Categorize(ctx, "WIRE ACME CORP")

		assert.Equal(t, "customer_payment", result.Category)
		assert.Equal(t, "external", result.Strategy)
	})

	t.Run("falls through to rules when external fails", func(t *testing.T) {
		client := &stubClassifier{err: errors.New("upstream down")}
		chain := classify.NewChain([]classify.Strategy{
			classify.NewExternalStrategy(client, time.Second),
			classify.NewRuleStrategy(),
		}, 0.5, nil, nil)

		result := chain.Categorize(ctx, "WPS SALARY BATCH")

		assert.Equal(t, classify.CategoryPayroll, result.Category)
		assert.Equal(t, "rules", result.Strategy)
	})

	t.Run("falls through when external times out", func(t *testing.T) {
		client := &stubClassifier{category: "payroll", delay: 200 * time.Millisecond}
		chain := classify.NewChain([]classify.Strategy{
			classify.NewExternalStrategy(client, 10*time.Millisecond),
			classify.NewRuleStrategy(),
		}, 0.5, nil, nil)

		result := chain.Categorize(ctx, "TIME DEPOSIT MATURITY")

		assert.Equal(t, classify.CategoryDepositMaturity, result.Category)
		assert.Equal(t, "rules", result.Strategy)
	})

	t.Run("never fails even with no useful signal", func(t *testing.T) {
		chain := classify.NewChain([]classify.Strategy{classify.NewRuleStrategy()}, 0.5, nil, nil)

		result := chain.Categorize(ctx, "???")

		assert.Equal(t, classify.FallbackCategory, result.Category)
	})

	t.Run("caches resolved categories", func(t *testing.T) {
		client := &stubClassifier{category: "customer_payment"}
		chain := classify.NewChain([]classify.Strategy{
			classify.NewExternalStrategy(client, time.Second),
		}, 0.5, classify.NewMemoryCache(), nil)

		first := chain.Categorize(ctx, "WIRE ACME CORP")
		second := chain.Categorize(ctx, "wire acme corp")

		assert.Equal(t, first.Category, second.Category)
		assert.Equal(t, "cache", second.Strategy)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("does not cache the fallback category", func(t *testing.T) {
		cache := classify.NewMemoryCache()
		chain := classify.NewChain([]classify.Strategy{classify.NewRuleStrategy()}, 0.5, cache, nil)

		chain.Categorize(ctx, "UNRECOGNIZABLE NARRATIVE")
		result := chain.Categorize(ctx, "UNRECOGNIZABLE NARRATIVE")

		assert.NotEqual(t, "cache", result.Strategy)
	})
}

func TestMemoryCache(t *testing.T) {
	cache := classify.NewMemoryCache()

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("wire acme", "customer_payment")
	got, ok := cache.Get("wire acme")
	assert.True(t, ok)
	assert.Equal(t, "customer_payment", got)
}

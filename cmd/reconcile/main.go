// Command reconcile runs a batch extraction from the command line: it loads
// a transaction feed JSON file, optionally loads reference records, runs
// extraction plus auto-matching for one family and prints the outcome.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/dto"
	"github.com/Wedkamikazi/tmsxo-backend/internal/application/reconciliation"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/classify"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/matcher"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/scoring"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/treasury"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/config"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/logging"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// candidateFile is the shape of the optional reference records file: kind
// tag plus kind-specific fields per entry.
type candidateFile struct {
	Records []struct {
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"record"`
	} `json:"records"`
}

func main() {
	_ = godotenv.Load()

	var (
		familyArg      string
		feedPath       string
		candidatesPath string
		accountID      string
		configFile     string
	)
	flag.StringVar(&familyArg, "family", "", "Reconciliation family (collections, payroll, intercompany, deposits)")
	flag.StringVar(&feedPath, "feed", "", "Path to transaction feed JSON file")
	flag.StringVar(&candidatesPath, "candidates", "", "Optional path to reference records JSON file")
	flag.StringVar(&accountID, "account", "", "Account ID for the feed")
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.Parse()

	if familyArg == "" || feedPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadOrEnvWithPath(configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "recon")

	family, err := treasury.ParseFamily(familyArg)
	if err != nil {
		logger.Error("invalid family", "error", err)
		os.Exit(2)
	}

	txs, err := loadFeed(feedPath, accountID)
	if err != nil {
		logger.Error("failed to load transaction feed", "path", feedPath, "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if candidatesPath != "" {
		loaded, err := loadCandidates(repo, candidatesPath)
		if err != nil {
			logger.Error("failed to load candidates", "path", candidatesPath, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded reference records", "count", loaded)
	}

	engine := reconciliation.NewEngine(
		repo,
		events.NewLogBus(logger),
		storage.NewAuditSink(repo),
		matcher.NewMatcher(scoring.NewScorer(scoring.DefaultConfig()), matcher.DefaultConfig()),
		classify.NewChain([]classify.Strategy{classify.NewRuleStrategy()}, 0.5, classify.NewMemoryCache(), logger),
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := engine.Extract(ctx, family, txs, accountID)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Run %d (%s): %d transactions\n", result.RunID, result.Family, len(txs))
	fmt.Printf("  created:      %d\n", result.Counts.ItemsCreated)
	fmt.Printf("  auto matched: %d\n", result.Counts.AutoMatched)
	fmt.Printf("  needs review: %d\n", result.Counts.NeedsReview)
	fmt.Printf("  unknown:      %d\n", result.Counts.Unknown)
	fmt.Printf("  skipped:      %d\n", result.Counts.Skipped)

	for _, r := range result.Results {
		if r.Error != "" {
			fmt.Printf("  ! %s: %s\n", r.TransactionID, r.Error)
		}
	}

	summary, err := engine.Summary(family)
	if err != nil {
		logger.Error("failed to load summary", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Family totals: %d items, %s total, %s matched, mean confidence %.2f\n",
		summary.TotalItems,
		summary.TotalAmount.StringFixed(2),
		summary.MatchedAmount.StringFixed(2),
		summary.MeanConfidence,
	)
}

// loadFeed parses the transaction feed file. The feed uses the same payload
// shape as the extraction API.
func loadFeed(path, accountID string) ([]treasury.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var payloads []dto.TransactionPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("invalid feed JSON: %w", err)
	}

	txs := make([]treasury.Transaction, 0, len(payloads))
	for _, p := range payloads {
		txs = append(txs, p.ToDomain(accountID))
	}
	return txs, nil
}

// loadCandidates upserts every reference record from the file.
func loadCandidates(repo storage.Repository, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var file candidateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("invalid candidates JSON: %w", err)
	}

	for i, entry := range file.Records {
		kind, err := treasury.ParseRecordKind(entry.Kind)
		if err != nil {
			return i, err
		}
		record, err := storage.DecodeRecord(kind, string(entry.Payload))
		if err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
		if err := repo.UpsertCandidate(record); err != nil {
			return i, err
		}
	}
	return len(file.Records), nil
}

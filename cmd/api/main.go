package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api"
	"github.com/Wedkamikazi/tmsxo-backend/internal/application/reconciliation"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/classify"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/investment"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/matcher"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/scoring"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/config"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/events"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/logging"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrEnv()
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	repo, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	engine := reconciliation.NewEngine(
		repo,
		events.NewLogBus(logger),
		storage.NewAuditSink(repo),
		matcher.NewMatcher(scoring.NewScorer(scoring.DefaultConfig()), matcher.DefaultConfig()),
		buildClassifier(cfg, logger),
		logging.NewLoggerWithSystem(cfg.Observability.Logging, "recon"),
	)

	advisor := investment.NewAdvisor(
		investment.NewCalendar(parseHolidays(cfg.Investment.Holidays, logger)),
		nil,
		logging.NewLoggerWithSystem(cfg.Observability.Logging, "advisor"),
	)

	serverCfg := api.Config{
		Port:              cfg.Server.Port,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		MinimumInvestment: decimal.NewFromFloat(cfg.Investment.MinimumInvestment),
	}
	server := api.NewServer(serverCfg, repo, engine, advisor, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildClassifier assembles the categorization chain. The external strategy
// joins only when an API key is configured; the rule strategy is always the
// last link so categorization never fails outright.
func buildClassifier(cfg *config.Config, logger *slog.Logger) *classify.Chain {
	strategies := []classify.Strategy{}
	if cfg.Classifier.Enabled {
		client := classify.NewHTTPClassifier(cfg.Classifier.APIKey, cfg.Classifier.Model, cfg.Classifier.BaseURL)
		timeout := time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second
		strategies = append(strategies, classify.NewExternalStrategy(client, timeout))
	}
	strategies = append(strategies, classify.NewRuleStrategy())

	return classify.NewChain(strategies, 0.5, classify.NewMemoryCache(), logger)
}

// parseHolidays converts YYYY-MM-DD config entries, skipping bad ones.
func parseHolidays(raw []string, logger *slog.Logger) []time.Time {
	holidays := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		day, err := time.Parse("2006-01-02", s)
		if err != nil {
			logger.Warn("skipping invalid holiday", "value", s)
			continue
		}
		holidays = append(holidays, day)
	}
	return holidays
}

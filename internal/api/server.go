package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Wedkamikazi/tmsxo-backend/internal/api/handlers"
	"github.com/Wedkamikazi/tmsxo-backend/internal/api/middleware"
	"github.com/Wedkamikazi/tmsxo-backend/internal/application/reconciliation"
	"github.com/Wedkamikazi/tmsxo-backend/internal/domain/investment"
	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port              int
	AllowedOrigins    []string
	MinimumInvestment decimal.Decimal
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:              8080,
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		MinimumInvestment: decimal.NewFromInt(500_000),
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	engine     *reconciliation.Engine
	advisor    *investment.Advisor
}

// NewServer creates a new API server.
// If advisor is nil, investment endpoints will not be available.
func NewServer(cfg Config, repo storage.Repository, engine *reconciliation.Engine, advisor *investment.Advisor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		repo:    repo,
		engine:  engine,
		advisor: advisor,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Items
		itemsHandler := handlers.NewItemsHandler(s.repo, s.engine)
		r.Get("/items", itemsHandler.List)
		r.Get("/items/{id}", itemsHandler.Get)
		r.Get("/items/{id}/audit", itemsHandler.Audit)
		r.Post("/items/{id}/reconcile", itemsHandler.Reconcile)
		r.Post("/items/{id}/match", itemsHandler.Match)
		r.Post("/items/{id}/confirm", itemsHandler.Confirm)

		// Family-scoped reconciliation
		reconHandler := handlers.NewReconciliationHandler(s.repo, s.engine)
		r.Post("/reconciliation/{family}/extract", reconHandler.Extract)
		r.Get("/reconciliation/{family}/summary", reconHandler.Summary)

		// Reference records
		candidatesHandler := handlers.NewCandidatesHandler(s.repo)
		r.Get("/candidates/{kind}", candidatesHandler.List)
		r.Post("/candidates", candidatesHandler.Upsert)

		// Extraction runs (historical)
		runsHandler := handlers.NewRunsHandler(s.repo)
		r.Get("/runs", runsHandler.List)

		// Investment suggestions
		if s.advisor != nil {
			investmentsHandler := handlers.NewInvestmentsHandler(s.advisor, s.config.MinimumInvestment)
			r.Post("/investments/suggestions", investmentsHandler.Suggest)
		}
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

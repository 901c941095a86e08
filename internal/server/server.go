// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"innovaradar/internal/config"
	"innovaradar/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// Dependencies bundles the stores and services the handlers consume.
type Dependencies struct {
	Clients       handlers.ClientStore
	Trends        handlers.TrendStore
	Sources       handlers.SourceStore
	Opportunities handlers.OpportunityStore
	Enricher      handlers.Enricher
	Matcher       handlers.MatchRunner
	Scanner       handlers.IngestRunner
	Cleaner       handlers.OrphanCleaner
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	clientHandler := handlers.NewClientHandler(deps.Clients, deps.Enricher)
	trendHandler := handlers.NewTrendHandler(deps.Trends)
	sourceHandler := handlers.NewSourceHandler(deps.Sources)
	opportunityHandler := handlers.NewOpportunityHandler(deps.Opportunities)
	runHandler := handlers.NewRunHandler(deps.Matcher, deps.Scanner, deps.Cleaner)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Clients API
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", clientHandler.GetClients)
				r.Post("/", clientHandler.UpsertClient)
				r.Delete("/{id}", clientHandler.DeleteClient)
				r.Post("/enrich", clientHandler.EnrichClient)
				r.Post("/summarize", clientHandler.SummarizeClient)
			})

			// Trends API
			r.Route("/trends", func(r chi.Router) {
				r.Get("/", trendHandler.GetTrends)
				r.Delete("/{id}", trendHandler.DeleteTrend)
			})

			// Sources API
			r.Route("/sources", func(r chi.Router) {
				r.Get("/", sourceHandler.GetSources)
				r.Post("/", sourceHandler.AddSource)
				r.Delete("/{id}", sourceHandler.DeleteSource)
				r.Put("/{id}/status", sourceHandler.UpdateSourceStatus)
			})

			// Opportunities API
			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", opportunityHandler.GetOpportunities)
				r.Delete("/{id}", opportunityHandler.DeleteOpportunity)
			})

			// Long-running operations
			r.Post("/match/run", runHandler.RunMatch)
			r.Post("/ingest/run", runHandler.RunIngest)
			r.Post("/maintenance/cleanup", runHandler.RunCleanup)
		})
	})

	// WebSocket endpoints for live progress streams
	router.Get("/ws/match", handlers.MatchWebSocketHandler(deps.Matcher))
	router.Get("/ws/ingest", handlers.IngestWebSocketHandler(deps.Scanner))

	// Create HTTP server. No global write timeout: the run endpoints and
	// websocket streams legitimately outlive it.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     router,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: 60 * time.Second,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

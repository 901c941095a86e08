// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"innovaradar/internal/adapter/storage"
	"innovaradar/internal/config"
	"innovaradar/internal/llm"
	"innovaradar/internal/server"
	"innovaradar/internal/service/enrich"
	"innovaradar/internal/service/ingest"
	"innovaradar/internal/service/maintenance"
	"innovaradar/internal/service/matching"
)

func main() {
	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	// Initialize the LLM judge; a missing key leaves it nil and the matching
	// cycle fails closed
	judge, err := llm.New(cfg.LLM.Provider, cfg.LLM.APIKey)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	if judge == nil {
		log.Println("Warning: LLM_API_KEY is not set, matching and relevance filtering are disabled")
	}

	// Initialize storage adapters
	clientStore := storage.NewClientStore(db)
	trendStore := storage.NewTrendStore(db)
	sourceStore := storage.NewSourceStore(db)
	opportunityStore := storage.NewOpportunityStore(db)

	// Initialize services
	cycle := matching.NewCycle(
		clientStore,
		trendStore,
		opportunityStore,
		judge,
		natsConn,
		matching.Config{
			TrendLimit:  cfg.Matching.TrendLimit,
			EventsTopic: cfg.Matching.EventsTopic,
		},
	)

	scanner := ingest.NewScanner(
		sourceStore,
		trendStore,
		judge,
		natsConn,
		ingest.Config{
			FetchTimeout: cfg.Ingest.FetchTimeout,
			EventsTopic:  cfg.Ingest.EventsTopic,
		},
	)

	enricher := enrich.NewEnricher(judge, enrich.Config{
		MaxResults:   cfg.Enrich.MaxResults,
		FetchTimeout: cfg.Enrich.FetchTimeout,
	})

	cleaner := maintenance.NewCleaner(clientStore, opportunityStore)

	// Repair any drift left over from previous runs
	if deleted, err := cleaner.CleanOrphans(ctx); err != nil {
		log.Printf("Startup orphan cleanup failed: %v", err)
	} else if deleted > 0 {
		log.Printf("Startup orphan cleanup removed %d opportunities", deleted)
	}

	// Schedule background jobs
	scheduler := cron.New()
	registerJobs(ctx, scheduler, cfg, scanner, cleaner)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Dependencies{
		Clients:       clientStore,
		Trends:        trendStore,
		Sources:       sourceStore,
		Opportunities: opportunityStore,
		Enricher:      enricher,
		Matcher:       cycle,
		Scanner:       scanner,
		Cleaner:       cleaner,
	})

	// Start HTTP server
	go func() {
		log.Printf("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Println("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	log.Println("Shutting down services...")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Cancel any in-flight scans or matching runs
	cancel()

	log.Println("Shutdown complete")
}

// registerJobs wires the periodic ingestion scan and orphan cleanup
func registerJobs(
	ctx context.Context,
	scheduler *cron.Cron,
	cfg config.Config,
	scanner *ingest.Scanner,
	cleaner *maintenance.Cleaner,
) {
	_, err := scheduler.AddFunc(cfg.Ingest.Schedule, func() {
		for ev := range scanner.Run(ctx) {
			log.Printf("[ingest] %s", ev.Message)
		}
	})
	if err != nil {
		log.Fatalf("Invalid ingest schedule %q: %v", cfg.Ingest.Schedule, err)
	}

	_, err = scheduler.AddFunc(cfg.Maintenance.Schedule, func() {
		if _, err := cleaner.CleanOrphans(ctx); err != nil {
			log.Printf("[maintenance] orphan cleanup failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Invalid maintenance schedule %q: %v", cfg.Maintenance.Schedule, err)
	}
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection. An empty URL disables event publishing.
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	if cfg.URL == "" {
		log.Println("NATS_URL is not set, event publishing disabled")
		return nil, nil
	}

	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

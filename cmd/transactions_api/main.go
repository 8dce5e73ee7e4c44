package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/financial-transactions-api/internal/api"
	"github.com/financial-transactions-api/internal/api/service"
	"github.com/financial-transactions-api/internal/auth"
	"github.com/financial-transactions-api/internal/config"
	"github.com/financial-transactions-api/internal/data/mongo"
	"github.com/financial-transactions-api/internal/data/postgres"
	"github.com/financial-transactions-api/internal/domain/principal"
	"github.com/financial-transactions-api/internal/logger"
	"github.com/financial-transactions-api/internal/platform/metrics"
	"github.com/financial-transactions-api/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("transactions_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateAuth(); err != nil {
		fmt.Printf("Invalid authentication configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Transactions API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"principal_source", cfg.Auth.PrincipalSource,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Principal store
	var (
		principals principal.Lookup
		mongoDB    *persistence.MongoDB
	)
	switch cfg.Auth.PrincipalSource {
	case config.PrincipalSourceMongo:
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
		principalRepo := mongo.NewPrincipalRepository(log, mongoDB.Collection(cfg.MongoDB.PrincipalsCollection))
		if err := principalRepo.EnsureIndexes(appCtx); err != nil {
			log.Error("Failed to ensure principal indexes", "error", err)
			os.Exit(1)
		}
		if cfg.Auth.Principals != "" {
			seed, err := principal.ParseSeed(cfg.Auth.Principals)
			if err != nil {
				log.Error("Failed to parse principal seed", "error", err)
				os.Exit(1)
			}
			if err := principalRepo.Seed(appCtx, seed); err != nil {
				log.Error("Failed to seed principals", "error", err)
				os.Exit(1)
			}
		}
		principals = principalRepo
	default:
		seed, err := principal.ParseSeed(cfg.Auth.Principals)
		if err != nil {
			log.Error("Failed to parse principal seed", "error", err)
			os.Exit(1)
		}
		principals = principal.NewMemoryStore(seed...)
		log.Info("In-memory principal store initialized", "principals", len(seed))
	}

	tokens, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Error("Failed to initialize token codec", "error", err)
		os.Exit(1)
	}
	log.Info("Token codec initialized", "token_ttl", tokens.TTL())

	// Initialize repositories
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize services
	transactionService := service.NewTransactionService(log, postgresDB, transactionRepo, outboxRepo)

	// Initialize REST server
	server := api.NewServer(log, cfg, transactionService, auth.NewCredentialVerifier(principals), tokens, metrics.New())
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Drain HTTP requests before the pool goes away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if mongoDB != nil {
		if err = mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

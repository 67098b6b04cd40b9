package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/banquito-core-processor/internal/api"
	apiservice "github.com/banquito-core-processor/internal/api/service"
	"github.com/banquito-core-processor/internal/config"
	"github.com/banquito-core-processor/internal/core_processor/components"
	"github.com/banquito-core-processor/internal/data/mongo"
	"github.com/banquito-core-processor/internal/data/postgres"
	"github.com/banquito-core-processor/internal/logger"
	"github.com/banquito-core-processor/internal/platform/corebank"
	"github.com/banquito-core-processor/internal/platform/messaging/producers"
	"github.com/banquito-core-processor/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("core_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Core API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"core_base_url", cfg.CoreBank.BaseURL,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	recordRepo := mongo.NewTransactionRecordRepository(log, mongoDB.Database())
	if err := recordRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create transaction record indexes", "error", err)
		os.Exit(1)
	}

	resultsProducer, err := producers.NewMessageProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.ResultTopic)
	if err != nil {
		log.Error("Failed to initialize results Kafka producer", "error", err)
		os.Exit(1)
	}

	// HTTP requests run the saga on the request goroutine, so no worker pool here
	orchestrator := components.CreateOrchestrator(components.Collaborators{
		Gateway:         corebank.NewHTTPGateway(log.With("component", "core_gateway"), cfg.CoreBank),
		RecordRepo:      recordRepo,
		FailureRepo:     postgres.NewReversalFailureRepository(log, postgresDB),
		ResultsProducer: resultsProducer,
	}, log, cfg)

	queryService := apiservice.NewTransactionQueryService(recordRepo, log.With("component", "query_service"))

	server := api.NewServer(log, cfg, orchestrator, queryService)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// stop accepting requests first so in-flight sagas can still audit and publish
	var closeErrs []error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		closeErrs = append(closeErrs, err)
	}

	if err := resultsProducer.Close(); err != nil {
		log.Error("Error closing results Kafka producer", "error", err)
		closeErrs = append(closeErrs, err)
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		closeErrs = append(closeErrs, err)
	}

	if serverErr != nil || len(closeErrs) > 0 {
		log.Error("Core API shutdown completed with errors", "server_error", serverErr, "close_errors", len(closeErrs))
		os.Exit(1)
	}
	log.Info("Core API shutdown completed successfully")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banquito-core-processor/internal/config"
	"github.com/banquito-core-processor/internal/core_processor/components"
	"github.com/banquito-core-processor/internal/core_processor/consumer"
	"github.com/banquito-core-processor/internal/core_processor/outbox_poller"
	"github.com/banquito-core-processor/internal/core_processor/service"
	"github.com/banquito-core-processor/internal/data/mongo"
	"github.com/banquito-core-processor/internal/data/postgres"
	"github.com/banquito-core-processor/internal/logger"
	"github.com/banquito-core-processor/internal/platform/corebank"
	"github.com/banquito-core-processor/internal/platform/messaging/consumers"
	"github.com/banquito-core-processor/internal/platform/messaging/producers"
	"github.com/banquito-core-processor/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("core_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Core Worker",
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
	failureRepo := postgres.NewReversalFailureRepository(log, postgresDB)

	resultsProducer, err := producers.NewMessageProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.ResultTopic)
	if err != nil {
		log.Error("Failed to initialize results Kafka producer", "error", err)
		os.Exit(1)
	}

	alertProducer, err := producers.NewMessageProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.ReversalAlertTopic)
	if err != nil {
		log.Error("Failed to initialize reversal alert Kafka producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// without a DLQ topic, rejected messages are logged and dropped
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	} else {
		log.Warn("KAFKA_DLQ_TOPIC is empty, dead lettering disabled")
	}

	processor := components.CreateTransactionProcessor(components.Collaborators{
		Gateway:         corebank.NewHTTPGateway(log.With("component", "core_gateway"), cfg.CoreBank),
		RecordRepo:      recordRepo,
		FailureRepo:     failureRepo,
		ResultsProducer: resultsProducer,
	}, log, cfg)

	requestHandler := consumer.NewTransactionRequestHandler(log, processor, deadLetters)
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka, cfg.WorkerPool.Size)

	alertPublisher := outbox_poller.NewAlertPublisher(failureRepo, alertProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, failureRepo, alertPublisher, postgresDB, log)

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.RequestTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, requestHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe Kafka consumer", "error", err)
		os.Exit(1)
	}
	go func() {
		<-kafkaConsumer.Done()
		if appCtx.Err() == nil {
			errChan <- fmt.Errorf("kafka consumer stopped unexpectedly")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// in-flight sagas finish before their producers and repositories go away
	select {
	case <-kafkaConsumer.Done():
	case <-shutdownCtx.Done():
		log.Warn("Kafka consumer did not stop before the shutdown timeout")
	}
	if pooled, ok := processor.(*service.WorkerPoolProcessor); ok {
		pooled.Shutdown(shutdownCtx)
	}

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()
	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	var closeErrs []error
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		closeErrs = append(closeErrs, err)
	}
	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
		closeErrs = append(closeErrs, err)
	}
	if err := resultsProducer.Close(); err != nil {
		log.Error("Error closing results Kafka producer", "error", err)
		closeErrs = append(closeErrs, err)
	}
	if err := alertProducer.Close(); err != nil {
		log.Error("Error closing reversal alert Kafka producer", "error", err)
		closeErrs = append(closeErrs, err)
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		closeErrs = append(closeErrs, err)
	}

	if serviceErr != nil || len(closeErrs) > 0 {
		log.Error("Core Worker shutdown completed with errors", "service_error", serviceErr, "close_errors", len(closeErrs))
		os.Exit(1)
	}
	log.Info("Core Worker shutdown completed successfully")
}

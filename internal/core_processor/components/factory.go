package components

import (
	"log/slog"

	"github.com/banquito-core-processor/internal/config"
	"github.com/banquito-core-processor/internal/core_processor/service"
	"github.com/banquito-core-processor/internal/domain/audit"
	"github.com/banquito-core-processor/internal/domain/compensation"
)

// Collaborators are the infrastructure pieces the processor is assembled from.
// A nil repository or producer disables that side effect.
type Collaborators struct {
	Gateway         service.CoreGateway
	RecordRepo      audit.Repository
	FailureRepo     compensation.Repository
	ResultsProducer MessagePublisher
}

// CreateOrchestrator wires the saga with its retry policy, classifier, translator and recorders
func CreateOrchestrator(collab Collaborators, logger *slog.Logger, cfg *config.Config) *service.Orchestrator {
	deps := service.OrchestratorDependencies{
		Gateway:    collab.Gateway,
		Retry:      NewRetryPolicy(cfg.CoreBank.RetryMaxAttempts, cfg.CoreBank.RetryBackoff(), logger.With("component", "retry_policy")),
		Classifier: NewResponseClassifier(cfg.CoreBank.ApprovedStatuses),
		Translator: NewTranslator(),
	}
	if collab.RecordRepo != nil {
		deps.Audit = NewAuditRecorder(collab.RecordRepo, logger.With("component", "audit_recorder"))
	}
	if collab.FailureRepo != nil {
		deps.Compensation = NewCompensationRecorder(collab.FailureRepo, logger.With("component", "compensation_recorder"))
	}
	if collab.ResultsProducer != nil {
		deps.Publisher = NewResultPublisher(collab.ResultsProducer)
	}

	return service.NewOrchestrator(deps, logger.With("component", "orchestrator"))
}

// CreateTransactionProcessor returns the orchestrator behind a worker pool sized by
// WORKER_POOL_SIZE, or the bare orchestrator when the pool cannot be created.
func CreateTransactionProcessor(collab Collaborators, logger *slog.Logger, cfg *config.Config) service.TransactionProcessor {
	orchestrator := CreateOrchestrator(collab, logger, cfg)

	pooled, err := service.NewWorkerPoolProcessor(
		orchestrator,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool processor, falling back to orchestrator", "error", err)
		return orchestrator
	}

	logger.Info("Created worker pool transaction processor", "pool_size", cfg.WorkerPool.Size)
	return pooled
}

package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/banquito-core-processor/internal/config"
	"github.com/banquito-core-processor/internal/domain/compensation"
)

// TxRunner runs fn inside one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Poller drains pending reversal failures into operator alerts
type Poller struct {
	failureRepo      compensation.Repository
	alertPublisher   AlertPublisher
	txRunner         TxRunner
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	failureRepo compensation.Repository,
	alertPublisher AlertPublisher,
	txRunner TxRunner,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		failureRepo:      failureRepo,
		alertPublisher:   alertPublisher,
		txRunner:         txRunner,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until the context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting reversal failure poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Reversal failure poller stopping due to context cancellation")
			return
		case <-ticker.C:
			if err := p.processPendingFailures(ctx); err != nil {
				p.logger.Error("Error while processing pending reversal failures", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingFailures(ctx context.Context) error {
	failures, err := p.failureRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending reversal failures: %w", err)
	}
	if len(failures) == 0 {
		p.logger.Debug("No pending reversal failures found")
		return nil
	}

	p.logger.Info("Fetched pending reversal failures", "count", len(failures))

	for _, failure := range failures {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := p.alertPublisher.PublishAlert(ctx, failure)
		if err == nil {
			continue
		}

		logger := p.logger.With("failure_id", failure.ID, "unique_code", failure.UniqueCode)
		if errors.Is(err, ErrAlertDelivered) {
			logger.Warn("Reversal alert delivered but still pending, it will be sent again", "error", err)
			continue
		}
		logger.Error("Failed to publish reversal alert", "current_attempts", failure.Attempts, "error", err)

		if errRecord := p.recordFailedAttempt(ctx, failure); errRecord != nil {
			logger.Error("Failed to record failed alert attempt", "error", errRecord)
		}
	}
	return nil
}

// recordFailedAttempt bumps the attempt counter and gives up on the failure once the limit is hit.
// With a TxRunner both writes commit together.
func (p *Poller) recordFailedAttempt(ctx context.Context, failure *compensation.Failure) error {
	giveUp := failure.Attempts+1 >= p.maxRetryAttempts
	apply := func(repo compensation.Repository) error {
		if err := repo.IncrementAttempts(ctx, failure.ID); err != nil {
			return fmt.Errorf("failed to increment attempts: %w", err)
		}
		if !giveUp {
			return nil
		}
		p.logger.Warn("Max retry attempts reached, marking reversal failure as FAILED_TO_PUBLISH",
			"failure_id", failure.ID, "attempts_made", failure.Attempts+1)
		if err := repo.UpdateStatus(ctx, failure.ID, compensation.StatusFailedToPublish); err != nil {
			return fmt.Errorf("failed to mark FAILED_TO_PUBLISH: %w", err)
		}
		return nil
	}

	if p.txRunner == nil {
		return apply(p.failureRepo)
	}
	return p.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return apply(p.failureRepo.WithTx(tx))
	})
}

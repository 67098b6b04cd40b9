package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banquito-core-processor/internal/domain/compensation"
)

// ErrAlertDelivered marks an alert that reached Kafka while its failure row kept the PENDING status.
// The alert is republished on the next poll; it does not count as a failed attempt.
var ErrAlertDelivered = errors.New("reversal alert delivered")

// AlertPublisher hands one reversal failure to the operators
type AlertPublisher interface {
	PublishAlert(ctx context.Context, failure *compensation.Failure) error
}

// AlertProducer is the Kafka producer bound to the reversal alert topic
type AlertProducer interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// AlertPublisherImpl publishes the alert and then marks the failure processed
type AlertPublisherImpl struct {
	failureRepo compensation.Repository
	producer    AlertProducer
	logger      *slog.Logger
}

func NewAlertPublisher(
	failureRepo compensation.Repository,
	producer AlertProducer,
	logger *slog.Logger,
) AlertPublisher {
	return &AlertPublisherImpl{
		failureRepo: failureRepo,
		producer:    producer,
		logger:      logger,
	}
}

// PublishAlert is at-least-once: a crash between publish and status update republishes the alert
func (p *AlertPublisherImpl) PublishAlert(ctx context.Context, failure *compensation.Failure) error {
	logger := p.logger.With("failure_id", failure.ID, "unique_code", failure.UniqueCode)

	if err := p.producer.Publish(ctx, failure.UniqueCode, failure.ToAlert()); err != nil {
		logger.Error("Failed to publish reversal alert", "error", err)
		return fmt.Errorf("publish reversal alert %d failed: %w", failure.ID, err)
	}

	if err := p.failureRepo.UpdateStatus(ctx, failure.ID, compensation.StatusProcessed); err != nil {
		logger.Error("Failed to mark reversal failure as PROCESSED", "error", err)
		return fmt.Errorf("%w for %s, but failed to mark failure %d as PROCESSED: %w", ErrAlertDelivered, failure.UniqueCode, failure.ID, err)
	}

	logger.Info("Reversal alert published and marked as PROCESSED")
	return nil
}

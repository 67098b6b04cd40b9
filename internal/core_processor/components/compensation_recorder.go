package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banquito-core-processor/internal/domain/compensation"
	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/banquito-core-processor/internal/platform/corebank"
)

type CompensationRecorderImpl struct {
	failureRepo compensation.Repository
	logger      *slog.Logger
}

func NewCompensationRecorder(failureRepo compensation.Repository, logger *slog.Logger) *CompensationRecorderImpl {
	return &CompensationRecorderImpl{
		failureRepo: failureRepo,
		logger:      logger,
	}
}

// RecordReversalFailure stores the unreversed debit so the outbox poller can alert operators
func (r *CompensationRecorderImpl) RecordReversalFailure(ctx context.Context, request *payment.TransactionRequest, debit *corebank.CardDebitRequest, reason string) error {
	failure, err := compensation.NewFailure(request.UniqueCode, request.CardBankSwift, debit, reason)
	if err != nil {
		r.logger.Error("Failed to build reversal failure", "unique_code", request.UniqueCode, "error", err)
		return fmt.Errorf("failed to build reversal failure for %s: %w", request.UniqueCode, err)
	}

	if err := r.failureRepo.Create(ctx, failure); err != nil {
		r.logger.Error("Failed to store reversal failure", "unique_code", request.UniqueCode, "error", err)
		return fmt.Errorf("failed to store reversal failure for %s: %w", request.UniqueCode, err)
	}

	r.logger.Info("Reversal failure stored for manual settlement", "unique_code", request.UniqueCode, "failure_id", failure.ID)
	return nil
}

package components

import (
	"context"
	"log/slog"

	"github.com/banquito-core-processor/internal/domain/audit"
	"github.com/banquito-core-processor/internal/domain/payment"
)

type AuditRecorderImpl struct {
	recordRepo audit.Repository
	logger     *slog.Logger
}

func NewAuditRecorder(recordRepo audit.Repository, logger *slog.Logger) *AuditRecorderImpl {
	return &AuditRecorderImpl{
		recordRepo: recordRepo,
		logger:     logger,
	}
}

// RecordResult appends the finished saga to the transaction journal
func (r *AuditRecorderImpl) RecordResult(ctx context.Context, request *payment.TransactionRequest, result *payment.Result, trace payment.Trace) error {
	record := audit.NewRecord(request, result, trace)

	if err := r.recordRepo.Create(ctx, record); err != nil {
		r.logger.Error("Failed to create transaction record",
			"unique_code", record.UniqueCode,
			"record_id", record.RecordID.String(),
			"error", err,
		)
		return err
	}

	r.logger.Debug("Transaction record created", "unique_code", record.UniqueCode, "record_id", record.RecordID.String(), "status", record.Status)
	return nil
}

package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/banquito-core-processor/internal/core_processor/service"
	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/banquito-core-processor/internal/platform/messaging/producers"
)

// TransactionRequestHandler runs sagas for transaction requests consumed from Kafka
type TransactionRequestHandler struct {
	processor service.TransactionProcessor
	dlq       producers.DeadLetterPublisher
	logger    *slog.Logger
}

// NewTransactionRequestHandler creates a new handler. dlq is nil when no DLQ topic is configured.
func NewTransactionRequestHandler(
	logger *slog.Logger,
	processor service.TransactionProcessor,
	dlq producers.DeadLetterPublisher,
) *TransactionRequestHandler {
	return &TransactionRequestHandler{
		processor: processor,
		dlq:       dlq,
		logger:    logger,
	}
}

// HandleMessage decodes and validates one request, then runs the saga.
// An error is returned only when a rejected message could not be dead lettered; the consumer retries it.
func (h *TransactionRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request payment.TransactionRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.reject(ctx, key, value, "malformed transaction request", err)
	}
	if err := request.Validate(); err != nil {
		return h.reject(ctx, key, value, "rejected by validation", err)
	}

	request.Channel = payment.ChannelKafka
	if request.CorrelationID == "" {
		request.CorrelationID = uuid.NewString()
	}

	logger := h.logger.With("correlation_id", request.CorrelationID, "unique_code", request.UniqueCode)
	logger.Info("Received transaction request for processing", "amount", request.Amount.String())

	result := h.processor.ProcessTransaction(ctx, &request)
	if result == nil {
		// the saga already ran, so the message is not handed back for another attempt
		logger.Error("Transaction processing returned no result")
		return nil
	}

	logger.Info("Transaction request processed", "status", result.Status, "response_code", result.ResponseCode)
	return nil
}

// reject parks a message that can never succeed. Without a DLQ it is logged and dropped.
func (h *TransactionRequestHandler) reject(ctx context.Context, key, value []byte, reason string, cause error) error {
	h.logger.Error("Rejecting transaction request message", "reason", reason, "error", cause, "message_key", string(key))

	if h.dlq == nil {
		h.logger.Warn("No DLQ configured, dropping rejected message", "message_key", string(key), "payload", string(value))
		return nil
	}

	dlqReason := fmt.Sprintf("%s: %s", reason, cause.Error())
	if err := h.dlq.PublishToDLQ(ctx, string(key), value, dlqReason); err != nil {
		h.logger.Error("Failed to publish message to DLQ", "dlq_error", err, "original_error", cause, "message_key", string(key))
		return fmt.Errorf("%s: %w", reason, cause)
	}
	return nil
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banquito-core-processor/internal/api/middleware"
	"github.com/banquito-core-processor/internal/core_processor/service"
	"github.com/banquito-core-processor/internal/domain/payment"
)

// TransactionHandler accepts transaction requests over HTTP and runs them synchronously
type TransactionHandler struct {
	processor service.TransactionProcessor
	logger    *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, processor service.TransactionProcessor) *TransactionHandler {
	return &TransactionHandler{
		processor: processor,
		logger:    logger,
	}
}

type processFunc func(p service.TransactionProcessor, c *gin.Context, request *payment.TransactionRequest) *payment.Result

// Process runs the full debit and credit saga
func (h *TransactionHandler) Process(c *gin.Context) {
	h.handle(c, func(p service.TransactionProcessor, c *gin.Context, request *payment.TransactionRequest) *payment.Result {
		return p.ProcessTransaction(c.Request.Context(), request)
	})
}

// ProcessCardDebit runs only the card debit leg
func (h *TransactionHandler) ProcessCardDebit(c *gin.Context) {
	h.handle(c, func(p service.TransactionProcessor, c *gin.Context, request *payment.TransactionRequest) *payment.Result {
		return p.ProcessCardDebit(c.Request.Context(), request)
	})
}

// ProcessMerchantCredit runs only the merchant credit leg
func (h *TransactionHandler) ProcessMerchantCredit(c *gin.Context) {
	h.handle(c, func(p service.TransactionProcessor, c *gin.Context, request *payment.TransactionRequest) *payment.Result {
		return p.ProcessMerchantCredit(c.Request.Context(), request)
	})
}

func (h *TransactionHandler) handle(c *gin.Context, process processFunc) {
	var request payment.TransactionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	request.Channel = payment.ChannelHTTP
	if correlationID := middleware.GetCorrelationID(c); correlationID != "" {
		request.CorrelationID = correlationID
	}

	if err := request.Validate(); err != nil {
		h.logger.Warn("Transaction request rejected", "unique_code", request.UniqueCode, "error", err)
		RespondWithDataAndError(c, http.StatusBadRequest, payment.NewValidationFailure(&request, err), "INVALID_REQUEST", err.Error())
		return
	}

	result := process(h.processor, c, &request)
	if result == nil {
		h.logger.Error("Processor returned no result", "unique_code", request.UniqueCode)
		RespondInternalError(c)
		return
	}

	RespondWithData(c, statusFor(result.Status), result)
}

// statusFor maps a final transaction status onto the HTTP status code
func statusFor(status payment.Status) int {
	switch status {
	case payment.StatusApproved:
		return http.StatusOK
	case payment.StatusDeclined:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

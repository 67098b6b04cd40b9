package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/banquito-core-processor/internal/api/service"
)

// TransactionRecordHandler serves the transaction journal
type TransactionRecordHandler struct {
	queryService service.TransactionQueryService
	logger       *slog.Logger
}

// NewTransactionRecordHandler creates a new journal handler
func NewTransactionRecordHandler(logger *slog.Logger, queryService service.TransactionQueryService) *TransactionRecordHandler {
	return &TransactionRecordHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// GetByUniqueCode returns the latest journal entry for a unique code, 404 if none exists
func (h *TransactionRecordHandler) GetByUniqueCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		RespondBadRequest(c, "Invalid unique code")
		return
	}

	record, err := h.queryService.GetByUniqueCode(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("Failed to get transaction record", "unique_code", code, "error", err)
		RespondInternalError(c)
		return
	}
	if record == nil {
		RespondNotFound(c, "Transaction not found")
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// GetByBankSwift returns the paginated journal of transactions debited from one bank
func (h *TransactionRecordHandler) GetByBankSwift(c *gin.Context) {
	swift := strings.TrimSpace(c.Param("swift"))
	if swift == "" {
		RespondBadRequest(c, "Invalid bank swift")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.queryService.GetByBankSwift(c.Request.Context(), swift, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list transaction records", "bank_swift", swift, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapRecordToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

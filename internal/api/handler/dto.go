package handler

import (
	"time"

	"github.com/banquito-core-processor/internal/domain/audit"
	"github.com/banquito-core-processor/internal/domain/payment"
)

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// TransactionRecordResponse represents a journal entry in API responses
type TransactionRecordResponse struct {
	RecordID          string        `json:"record_id"`
	UniqueCode        string        `json:"unique_code"`
	TransactionCode   string        `json:"transaction_code,omitempty"`
	Amount            string        `json:"amount"`
	Currency          string        `json:"currency,omitempty"`
	CardBankSwift     string        `json:"card_bank_swift"`
	MerchantBankSwift string        `json:"merchant_bank_swift,omitempty"`
	Status            string        `json:"status"`
	ResponseCode      string        `json:"response_code"`
	Message           string        `json:"message,omitempty"`
	Compensated       bool          `json:"compensated"`
	Trace             payment.Trace `json:"trace"`
	CreatedAt         string        `json:"created_at"`
	ProcessedAt       string        `json:"processed_at,omitempty"`
}

func mapRecordToResponse(record *audit.Record) TransactionRecordResponse {
	response := TransactionRecordResponse{
		RecordID:          record.RecordID.String(),
		UniqueCode:        record.UniqueCode,
		TransactionCode:   record.TransactionCode,
		Amount:            record.Amount,
		Currency:          record.Currency,
		CardBankSwift:     record.CardBankSwift,
		MerchantBankSwift: record.MerchantBankSwift,
		Status:            string(record.Status),
		ResponseCode:      record.ResponseCode,
		Message:           record.Message,
		Compensated:       record.Compensated(),
		Trace:             record.Trace,
		CreatedAt:         record.CreatedAt.Format(time.RFC3339),
	}
	if !record.ProcessedAt.IsZero() {
		response.ProcessedAt = record.ProcessedAt.Format(time.RFC3339)
	}
	return response
}

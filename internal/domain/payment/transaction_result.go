package payment

import (
	"time"
)

// Result is the final response for one transaction request.
// It is built exactly once at the end of orchestration and never mutated.
type Result struct {
	UniqueCode   string    `json:"unique_code"`
	Status       Status    `json:"status"`
	ResponseCode string    `json:"response_code"`
	Message      string    `json:"message,omitempty"`
	BankSwift    string    `json:"bank_swift,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// NewResult builds a result for the request from a final status, code and message
func NewResult(request *TransactionRequest, status Status, responseCode, message string) *Result {
	result := &Result{
		Status:       status,
		ResponseCode: responseCode,
		Message:      message,
		ProcessedAt:  time.Now().UTC(),
	}
	if request != nil {
		result.UniqueCode = request.UniqueCode
		result.BankSwift = request.CardBankSwift
	}
	return result
}

// NewValidationFailure builds the ERROR result returned when a request never reaches the core
func NewValidationFailure(request *TransactionRequest, err error) *Result {
	return NewResult(request, StatusError, CodeInvalidRequest, err.Error())
}

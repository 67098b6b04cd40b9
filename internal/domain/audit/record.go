package audit

import (
	"time"

	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/google/uuid"
)

// Record is the journal entry written after every finished saga.
// Amount is kept as its decimal string so the journal never rounds it.
type Record struct {
	RecordID          uuid.UUID      `json:"record_id" bson:"record_id"`
	UniqueCode        string         `json:"unique_code" bson:"unique_code"`
	TransactionCode   string         `json:"transaction_code,omitempty" bson:"transaction_code,omitempty"`
	CorrelationID     string         `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Amount            string         `json:"amount" bson:"amount"`
	Currency          string         `json:"currency,omitempty" bson:"currency,omitempty"`
	CardBankSwift     string         `json:"card_bank_swift" bson:"card_bank_swift"`
	MerchantBankSwift string         `json:"merchant_bank_swift,omitempty" bson:"merchant_bank_swift,omitempty"`
	MerchantCode      string         `json:"merchant_code,omitempty" bson:"merchant_code,omitempty"`
	Status            payment.Status `json:"status" bson:"status"`
	ResponseCode      string         `json:"response_code" bson:"response_code"`
	Message           string         `json:"message,omitempty" bson:"message,omitempty"`
	Trace             payment.Trace  `json:"trace" bson:"trace"`
	CreatedAt         time.Time      `json:"created_at" bson:"created_at"`
	ProcessedAt       time.Time      `json:"processed_at" bson:"processed_at"`
}

// NewRecord builds a journal entry from the request, its final result and the legs that ran
func NewRecord(request *payment.TransactionRequest, result *payment.Result, trace payment.Trace) *Record {
	record := &Record{
		RecordID:     uuid.New(),
		Status:       result.Status,
		ResponseCode: result.ResponseCode,
		Message:      result.Message,
		Trace:        trace,
		CreatedAt:    time.Now().UTC(),
		ProcessedAt:  result.ProcessedAt,
		UniqueCode:   result.UniqueCode,
	}
	if request == nil {
		return record
	}

	record.TransactionCode = request.TransactionCode
	record.CorrelationID = request.CorrelationID
	record.Amount = request.Amount.String()
	record.Currency = request.Currency
	record.CardBankSwift = request.CardBankSwift
	record.MerchantBankSwift = request.MerchantBankSwift
	record.MerchantCode = request.MerchantCode
	return record
}

// Compensated reports whether a reversal was confirmed for this saga
func (r *Record) Compensated() bool {
	return r.Trace.Reversal.Succeeded()
}

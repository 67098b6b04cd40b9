package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	t.Run("CopiesRequestAndResult", func(t *testing.T) {
		req := &payment.TransactionRequest{
			UniqueCode:        "UNIQUE123",
			TransactionCode:   "TX-1",
			CorrelationID:     "corr-1",
			Amount:            decimal.RequireFromString("100.10"),
			Currency:          "USD",
			CardBankSwift:     "BANKUS33XXX",
			MerchantBankSwift: "BANKECXXXX",
		}
		result := payment.NewResult(req, payment.StatusApproved, payment.CodeApproved, payment.MessageApproved)
		debit := payment.Approved("00")
		credit := payment.Approved("00")
		trace := payment.Trace{Channel: payment.ChannelHTTP, Debit: &debit, Credit: &credit}

		record := NewRecord(req, result, trace)

		require.NotNil(t, record)
		assert.NotEqual(t, uuid.Nil, record.RecordID)
		assert.Equal(t, "UNIQUE123", record.UniqueCode)
		assert.Equal(t, "100.1", record.Amount)
		assert.Equal(t, "BANKUS33XXX", record.CardBankSwift)
		assert.Equal(t, payment.StatusApproved, record.Status)
		assert.Equal(t, result.ProcessedAt, record.ProcessedAt)
		assert.WithinDuration(t, time.Now().UTC(), record.CreatedAt, time.Second)
		assert.False(t, record.Compensated())
	})

	t.Run("NilRequest", func(t *testing.T) {
		result := payment.NewResult(nil, payment.StatusError, payment.CodeInvalidRequest, "invalid")
		record := NewRecord(nil, result, payment.Trace{})

		assert.Empty(t, record.Amount)
		assert.Equal(t, payment.StatusError, record.Status)
	})

	t.Run("CompensatedWhenReversalConfirmed", func(t *testing.T) {
		reversal := payment.Approved("00")
		record := &Record{Trace: payment.Trace{Reversal: &payment.Reversal{Outcome: &reversal}}}
		assert.True(t, record.Compensated())

		record.Trace.Reversal.FailureReason = "timeout"
		assert.False(t, record.Compensated())
	})
}

func TestErrRecordNotFound_Is(t *testing.T) {
	err := error(ErrRecordNotFound{UniqueCode: "ABC"})

	assert.True(t, errors.Is(err, ErrRecordNotFound{}))
	assert.True(t, errors.Is(err, ErrRecordNotFound{UniqueCode: "ABC"}))
	assert.False(t, errors.Is(err, ErrRecordNotFound{UniqueCode: "XYZ"}))
	assert.Equal(t, "transaction record not found: ABC", err.Error())
}

package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransactionProcessor struct {
	mock.Mock
}

func (m *MockTransactionProcessor) ProcessTransaction(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	args := m.Called(ctx, request)
	return args.Get(0).(*payment.Result)
}

func (m *MockTransactionProcessor) ProcessCardDebit(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	args := m.Called(ctx, request)
	return args.Get(0).(*payment.Result)
}

func (m *MockTransactionProcessor) ProcessMerchantCredit(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	args := m.Called(ctx, request)
	return args.Get(0).(*payment.Result)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWorkerPoolProcessor_InvalidSize(t *testing.T) {
	processor, err := NewWorkerPoolProcessor(&MockTransactionProcessor{}, WorkerPoolConfig{Size: 0}, discardLogger())

	assert.Error(t, err)
	assert.Nil(t, processor)
}

func TestWorkerPoolProcessor_Delegates(t *testing.T) {
	request := testRequest()
	approved := payment.NewResult(request, payment.StatusApproved, payment.CodeApproved, payment.MessageApproved)
	declined := payment.NewResult(request, payment.StatusDeclined, payment.CodeDebitDeclined, "declined")

	tests := []struct {
		name   string
		method string
		call   func(p *WorkerPoolProcessor) *payment.Result
		want   *payment.Result
	}{
		{"Saga", "ProcessTransaction", func(p *WorkerPoolProcessor) *payment.Result {
			return p.ProcessTransaction(context.Background(), request)
		}, approved},
		{"CardDebit", "ProcessCardDebit", func(p *WorkerPoolProcessor) *payment.Result {
			return p.ProcessCardDebit(context.Background(), request)
		}, declined},
		{"MerchantCredit", "ProcessMerchantCredit", func(p *WorkerPoolProcessor) *payment.Result {
			return p.ProcessMerchantCredit(context.Background(), request)
		}, approved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &MockTransactionProcessor{}
			base.On(tt.method, mock.Anything, request).Return(tt.want).Once()

			processor, err := NewWorkerPoolProcessor(base, WorkerPoolConfig{Size: 2}, discardLogger())
			require.NoError(t, err)
			defer processor.Shutdown(context.Background())

			assert.Same(t, tt.want, tt.call(processor))
			base.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolProcessor_PanicBecomesErrorResult(t *testing.T) {
	base := &MockTransactionProcessor{}
	base.On("ProcessTransaction", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	}).Once()

	processor, err := NewWorkerPoolProcessor(base, WorkerPoolConfig{Size: 1}, discardLogger())
	require.NoError(t, err)
	defer processor.Shutdown(context.Background())

	result := processor.ProcessTransaction(context.Background(), testRequest())

	require.NotNil(t, result)
	assert.Equal(t, payment.StatusError, result.Status)
	assert.Equal(t, payment.MessageUnexpectedError, result.Message)
}

func TestWorkerPoolProcessor_BoundsConcurrency(t *testing.T) {
	base := &MockTransactionProcessor{}
	const poolSize = 3

	var mu sync.Mutex
	running, peak, processed := 0, 0, 0
	base.On("ProcessTransaction", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		running--
		processed++
		mu.Unlock()
	}).Return(&payment.Result{Status: payment.StatusApproved})

	processor, err := NewWorkerPoolProcessor(base, WorkerPoolConfig{Size: poolSize}, discardLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	defer processor.Shutdown(ctx)

	numRequests := 12
	var wg sync.WaitGroup
	wg.Add(numRequests)
	for i := 0; i < numRequests; i++ {
		go func(i int) {
			defer wg.Done()
			request := &payment.TransactionRequest{
				UniqueCode: "UNIQUE" + strconv.Itoa(i),
				Amount:     decimal.NewFromInt(10),
			}
			result := processor.ProcessTransaction(context.Background(), request)
			assert.Equal(t, payment.StatusApproved, result.Status)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, numRequests, processed)
	assert.LessOrEqual(t, peak, poolSize)
	assert.Equal(t, poolSize, processor.Capacity())
}

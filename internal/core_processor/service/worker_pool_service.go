package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/banquito-core-processor/internal/domain/payment"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessor bounds how many sagas run at once. Callers block until
// a worker is free and then until their own saga finishes.
type WorkerPoolProcessor struct {
	base   TransactionProcessor
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessor(base TransactionProcessor, config WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolProcessor, error) {
	if config.Size <= 0 {
		return nil, fmt.Errorf("worker pool size must be greater than 0, got %d", config.Size)
	}

	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessor{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

func (s *WorkerPoolProcessor) ProcessTransaction(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	return s.submit(request, func() *payment.Result {
		return s.base.ProcessTransaction(ctx, request)
	})
}

func (s *WorkerPoolProcessor) ProcessCardDebit(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	return s.submit(request, func() *payment.Result {
		return s.base.ProcessCardDebit(ctx, request)
	})
}

func (s *WorkerPoolProcessor) ProcessMerchantCredit(ctx context.Context, request *payment.TransactionRequest) *payment.Result {
	return s.submit(request, func() *payment.Result {
		return s.base.ProcessMerchantCredit(ctx, request)
	})
}

func (s *WorkerPoolProcessor) submit(request *payment.TransactionRequest, task func() *payment.Result) *payment.Result {
	resultChan := make(chan *payment.Result, 1)

	err := s.pool.Submit(func() {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("Panic in worker pool task", "panic", p)
				resultChan <- payment.NewResult(request, payment.StatusError, payment.CodeProcessingError, payment.MessageUnexpectedError)
			}
		}()
		resultChan <- task()
	})
	if err != nil {
		uniqueCode := ""
		if request != nil {
			uniqueCode = request.UniqueCode
		}
		s.logger.Error("Failed to submit transaction to worker pool", "unique_code", uniqueCode, "error", err)
		return payment.NewResult(request, payment.StatusError, payment.CodeProcessingError, "transaction processor unavailable")
	}

	return <-resultChan
}

// Shutdown waits for running sagas, up to the given context, and releases the pool
func (s *WorkerPoolProcessor) Shutdown(ctx context.Context) {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.pool.ReleaseTimeout(time.Until(deadline)); err != nil {
			s.logger.Warn("Worker pool did not drain before timeout", "error", err)
		}
		return
	}
	s.pool.Release()
}

func (s *WorkerPoolProcessor) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProcessor) Capacity() int {
	return s.pool.Cap()
}

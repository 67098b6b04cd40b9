package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banquito-core-processor/internal/domain/audit"
)

type transactionQueryService struct {
	records audit.Repository
	logger  *slog.Logger
}

// NewTransactionQueryService creates a query service over the journal repository
func NewTransactionQueryService(records audit.Repository, logger *slog.Logger) TransactionQueryService {
	return &transactionQueryService{
		records: records,
		logger:  logger,
	}
}

func (s *transactionQueryService) GetByUniqueCode(ctx context.Context, uniqueCode string) (*audit.Record, error) {
	record, err := s.records.GetByUniqueCode(ctx, uniqueCode)
	if err != nil {
		if errors.Is(err, audit.ErrRecordNotFound{}) {
			return nil, nil
		}
		s.logger.Error("Failed to load transaction record", "unique_code", uniqueCode, "error", err)
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}
	return record, nil
}

func (s *transactionQueryService) GetByBankSwift(ctx context.Context, bankSwift string, page, perPage int) ([]*audit.Record, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	records, err := s.records.GetByBankSwift(ctx, bankSwift, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transaction records: %w", err)
	}

	total, err := s.records.CountByBankSwift(ctx, bankSwift)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transaction records: %w", err)
	}

	return records, total, nil
}

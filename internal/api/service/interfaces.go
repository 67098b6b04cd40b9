package service

import (
	"context"

	"github.com/banquito-core-processor/internal/domain/audit"
)

// TransactionQueryService reads the transaction journal
type TransactionQueryService interface {
	// GetByUniqueCode returns the latest journal entry for the code, or nil when none exists
	GetByUniqueCode(ctx context.Context, uniqueCode string) (*audit.Record, error)
	GetByBankSwift(ctx context.Context, bankSwift string, page, perPage int) ([]*audit.Record, int64, error)
}

package audit

import (
	"context"
)

// Repository persists the transaction journal with pagination support
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByUniqueCode(ctx context.Context, uniqueCode string) (*Record, error)
	GetByBankSwift(ctx context.Context, bankSwift string, limit, offset int) ([]*Record, error)
	CountByBankSwift(ctx context.Context, bankSwift string) (int64, error)
}

// ErrRecordNotFound indicates no journal entry exists for a unique code
type ErrRecordNotFound struct {
	UniqueCode string
}

func (e ErrRecordNotFound) Error() string {
	return "transaction record not found: " + e.UniqueCode
}

// Is matches any ErrRecordNotFound when the target carries no unique code
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.UniqueCode == "" {
		return true
	}
	return e.UniqueCode == t.UniqueCode
}

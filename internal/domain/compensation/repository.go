package compensation

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository persists reversal failures waiting to be published
type Repository interface {
	Create(ctx context.Context, failure *Failure) error
	GetPending(ctx context.Context, limit int) ([]*Failure, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	IncrementAttempts(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}

// ErrFailureNotFound indicates a missing reversal failure row
type ErrFailureNotFound struct {
	ID int64
}

func (e ErrFailureNotFound) Error() string {
	return "reversal failure not found: " + strconv.FormatInt(e.ID, 10)
}

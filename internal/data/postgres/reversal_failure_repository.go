package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/banquito-core-processor/internal/domain/compensation"
	"github.com/banquito-core-processor/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// ReversalFailureRepository implements the compensation.Repository interface for PostgreSQL
type ReversalFailureRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReversalFailureRepository creates a new PostgreSQL reversal failure repository
func NewReversalFailureRepository(logger *slog.Logger, db *persistence.PostgresDB) compensation.Repository {
	return &ReversalFailureRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *ReversalFailureRepository) WithTx(tx pgx.Tx) compensation.Repository {
	return &ReversalFailureRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a reversal failure in pending status for the outbox poller
func (r *ReversalFailureRepository) Create(ctx context.Context, failure *compensation.Failure) error {
	query := `
		INSERT INTO reversal_failures (unique_code, bank_swift, payload, reason, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		failure.UniqueCode,
		failure.BankSwift,
		failure.Payload,
		failure.Reason,
		failure.Status,
		failure.Attempts,
		failure.CreatedAt,
	).Scan(&failure.ID)

	if err != nil {
		r.logger.Error("Failed to create reversal failure",
			"unique_code", failure.UniqueCode,
			"error", err,
		)
		return fmt.Errorf("failed to create reversal failure: %w", err)
	}

	return nil
}

// GetPending retrieves a batch of pending failures, oldest first
func (r *ReversalFailureRepository) GetPending(ctx context.Context, limit int) ([]*compensation.Failure, error) {
	query := `
		SELECT id, unique_code, bank_swift, payload, reason, status, attempts, created_at, last_attempt_at
		FROM reversal_failures
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, compensation.StatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending reversal failures", "error", err)
		return nil, fmt.Errorf("failed to get pending reversal failures: %w", err)
	}
	defer rows.Close()

	var failures []*compensation.Failure
	for rows.Next() {
		var failure compensation.Failure
		err := rows.Scan(
			&failure.ID,
			&failure.UniqueCode,
			&failure.BankSwift,
			&failure.Payload,
			&failure.Reason,
			&failure.Status,
			&failure.Attempts,
			&failure.CreatedAt,
			&failure.LastAttemptAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan reversal failure", "error", err)
			return nil, fmt.Errorf("failed to scan reversal failure: %w", err)
		}
		failures = append(failures, &failure)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over reversal failures", "error", err)
		return nil, fmt.Errorf("error iterating over reversal failures: %w", err)
	}

	return failures, nil
}

// UpdateStatus sets the status and last attempt timestamp.
// Returns ErrFailureNotFound if the row doesn't exist.
func (r *ReversalFailureRepository) UpdateStatus(ctx context.Context, id int64, status compensation.Status) error {
	query := `
		UPDATE reversal_failures
		SET status = $1, last_attempt_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update reversal failure status",
			"id", id,
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to update reversal failure status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return compensation.ErrFailureNotFound{ID: id}
	}

	return nil
}

// IncrementAttempts bumps the publish attempt counter
func (r *ReversalFailureRepository) IncrementAttempts(ctx context.Context, id int64) error {
	query := `
		UPDATE reversal_failures
		SET attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to increment reversal failure attempts",
			"id", id,
			"error", err,
		)
		return fmt.Errorf("failed to increment reversal failure attempts: %w", err)
	}

	if result.RowsAffected() == 0 {
		return compensation.ErrFailureNotFound{ID: id}
	}

	return nil
}

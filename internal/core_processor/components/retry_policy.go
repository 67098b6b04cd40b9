package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/banquito-core-processor/internal/core_processor/service"
	"github.com/banquito-core-processor/internal/platform/corebank"
)

type waitFunc func(ctx context.Context, d time.Duration) error

// RetryPolicyImpl retries transport-class failures with linear backoff.
// The attempt counter lives in each Invoke call, so one policy serves every saga.
type RetryPolicyImpl struct {
	maxAttempts int
	baseBackoff time.Duration
	wait        waitFunc
	logger      *slog.Logger
}

func NewRetryPolicy(maxAttempts int, baseBackoff time.Duration, logger *slog.Logger) *RetryPolicyImpl {
	return &RetryPolicyImpl{
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		wait:        sleepContext,
		logger:      logger,
	}
}

// Invoke runs call at most maxAttempts times, sleeping baseBackoff*attempt between
// transport failures. A 4xx answer stops immediately as a CoreProcessingError.
func (p *RetryPolicyImpl) Invoke(ctx context.Context, call service.RemoteCall) (*corebank.RemoteCallResult, error) {
	maxAttempts, baseBackoff := p.maxAttempts, p.baseBackoff
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	attempt := 1
	for ; attempt <= maxAttempts; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}

		var statusErr *corebank.StatusError
		if errors.As(err, &statusErr) && statusErr.ClientRejection() {
			return nil, corebank.NewCoreProcessingError(statusErr)
		}
		if !retryable(err) {
			return nil, err
		}

		lastErr = err
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		delay := baseBackoff * time.Duration(attempt)
		p.logger.Warn("Core call failed, retrying", "attempt", attempt, "max_attempts", maxAttempts, "backoff", delay, "error", err)
		if waitErr := p.wait(ctx, delay); waitErr != nil {
			p.logger.Warn("Retry wait interrupted", "attempt", attempt, "error", waitErr)
			break
		}
	}

	return nil, fmt.Errorf("core call failed after %d attempt(s): %w", min(attempt, maxAttempts), lastErr)
}

// retryable is true for failures that may succeed on a second try: no response, or 5xx
func retryable(err error) bool {
	var transportErr *corebank.TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var statusErr *corebank.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

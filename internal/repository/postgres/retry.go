package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"elenchus/internal/domain"
)

const (
	maxAttempts = 3
	baseBackoff = 100 * time.Millisecond
)

// withRetry runs op with a bounded retry-and-backoff envelope for transient
// failures. Non-transient errors return immediately; once the budget is
// spent the last error is wrapped in domain.ErrPersistenceUnavailable so the
// orchestrator can fail the current request without losing data.
func withRetry(ctx context.Context, logger *slog.Logger, opName string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %v", domain.ErrPersistenceUnavailable, opName, ctx.Err())
			}
			logger.Warn("retrying store operation",
				"op", opName,
				"attempt", attempt+1,
				"error", lastErr,
			)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !isTransientError(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %s: %v", domain.ErrPersistenceUnavailable, opName, lastErr)
}

package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taxlaw-backend/logger"
)

const maxRetries = 3

var initialBackoff = time.Second

// withRetry calls fn up to maxRetries times with exponential backoff. Errors
// for which retryable returns false are returned immediately.
func withRetry[T any](ctx context.Context, op string, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			logger.Log.Warn("retrying model call",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	return zero, lastErr
}

func alwaysRetry(error) bool { return true }

package render

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryableError indicates a transient conversion failure.
type RetryableError struct {
	Attempt int
	Err     error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable render error (attempt %d): %v", e.Attempt, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

package resilience

import (
	"context"
	"strings"
	"time"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts       int           // Total attempts, including the first call
	InitialBackoff    time.Duration // Backoff before the second attempt
	MaxBackoff        time.Duration // Cap on backoff growth
	BackoffMultiplier float64       // Multiplier for exponential backoff
}

// DefaultRetryConfig returns a single-attempt configuration. Callers that
// want actual retries must raise MaxAttempts explicitly.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       1,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// IsRetryableError reports whether an error is worth retrying
type IsRetryableError func(error) bool

// Retry executes fn up to config.MaxAttempts times, backing off between
// attempts. It stops early when ctx is done or when isRetryable rejects the
// error. The last error is returned when all attempts fail.
func Retry(ctx context.Context, fn RetryableFunc, config *RetryConfig, isRetryable IsRetryableError) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryable != nil && !isRetryable(err) {
			return err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}

// IsRetryableNetworkError checks if an error looks like a transient
// network-level failure
func IsRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, substr := range []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"unavailable",
		"network is unreachable",
		"no route to host",
		"deadline exceeded",
		"timeout",
		"i/o timeout",
		"too many connections",
		"rate limit",
	} {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

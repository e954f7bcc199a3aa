package errors

import (
	"context"
	"time"
)

// RetryConfig configures retry behavior for overloaded (503) responses.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retries (0 = unbounded)
	Delay      time.Duration // Fixed delay between retries (0 = immediate resend)
}

// DefaultRetryConfig matches the target server contract: a 503 is resent
// indefinitely with no backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		Delay:      0,
	}
}

// Retrier re-issues an operation while it keeps failing with a retryable
// error. Unlike a conventional retrier it supports an unbounded mode, since
// the 503 contract defines no retry cap.
type Retrier struct {
	config RetryConfig
}

// NewRetrier creates a new retrier.
func NewRetrier(config RetryConfig) *Retrier {
	return &Retrier{config: config}
}

// NewDefaultRetrier creates a retrier with default configuration.
func NewDefaultRetrier() *Retrier {
	return NewRetrier(DefaultRetryConfig())
}

// RetryFunc is a function that can be retried.
type RetryFunc func(ctx context.Context) error

// RetryResult holds the result of a retry operation.
type RetryResult struct {
	Attempts  int           // Number of attempts made
	LastError error         // The last error encountered
	Duration  time.Duration // Total time spent
	Success   bool          // Whether the operation succeeded
}

// Do executes the function, resending while it fails with a retryable error.
// Non-retryable errors are returned immediately.
func (r *Retrier) Do(ctx context.Context, operation, url string, fn RetryFunc) *RetryResult {
	result := &RetryResult{}
	start := time.Now()

	for {
		result.Attempts++

		err := fn(ctx)
		if err == nil {
			result.Success = true
			result.Duration = time.Since(start)
			return result
		}

		result.LastError = err

		if ctx.Err() != nil {
			result.LastError = NewCancelledError(url, operation)
			result.Duration = time.Since(start)
			return result
		}

		if !IsRetryable(err) {
			result.Duration = time.Since(start)
			return result
		}

		if r.config.MaxRetries > 0 && result.Attempts > r.config.MaxRetries {
			result.Duration = time.Since(start)
			return result
		}

		if r.config.Delay > 0 {
			select {
			case <-ctx.Done():
				result.LastError = NewCancelledError(url, operation)
				result.Duration = time.Since(start)
				return result
			case <-time.After(r.config.Delay):
			}
		}
	}
}

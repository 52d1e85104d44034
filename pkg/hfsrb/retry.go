package hfsrb

import "time"

// ErrorClassifier decides whether a failed sink write may be retried.
type ErrorClassifier interface {
	// IsTransient returns true if the operation should be retried.
	IsTransient(err error) bool
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the wait before retry number attempt (zero-indexed).
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the number of retries after the first try (0 = none, -1 = unlimited).
	MaxAttempts() int
}

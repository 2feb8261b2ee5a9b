// Package retry provides a bounded fixed-delay retry helper for transient
// provider and network failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is returned when every attempt failed.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context ends during retry.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// IsRetryable decides whether an error is worth another attempt.
	IsRetryable func(error) bool
	// Sleep waits between attempts. Tests inject a recording stub; nil
	// means a real context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns a retry configuration suitable for search providers.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
		IsRetryable: DefaultIsRetryable,
	}
}

// DefaultIsRetryable treats network-level failures as transient.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes fn up to MaxAttempts times with a fixed delay between
// attempts. A non-retryable error stops immediately and is returned as-is;
// exhausting the attempts wraps the last error in ErrMaxAttemptsExceeded.
func Do(ctx context.Context, config Config, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Delay <= 0 {
		config.Delay = 5 * time.Second
	}
	if config.IsRetryable == nil {
		config.IsRetryable = DefaultIsRetryable
	}
	if config.Sleep == nil {
		config.Sleep = wait
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.IsRetryable(err) {
			return err
		}

		// Don't sleep after the last attempt.
		if attempt < config.MaxAttempts {
			if err := config.Sleep(ctx, config.Delay); err != nil {
				return fmt.Errorf("%w: %v", ErrContextCancelled, err)
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, config.MaxAttempts, lastErr)
}

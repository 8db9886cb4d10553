// Package resilience wraps calls to flaky upstreams (the AI gateway, the
// code registry) in retry with exponential backoff and a circuit breaker.
package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/logging"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// Jitter adds up to 10% random delay
	Jitter bool
	// Retryable decides whether an error is worth another attempt
	Retryable func(error) bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      200 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
		Retryable:         DefaultRetryable,
	}
}

// DefaultRetryable retries timeouts and upstream failures, never caller errors
func DefaultRetryable(err error) bool {
	if err == nil || IsCircuitBreakerError(err) {
		return false
	}
	switch errors.GetType(err) {
	case errors.ErrorTypeTimeout, errors.ErrorTypeExternal:
		return true
	case errors.ErrorTypeInternal:
		_, isApp := errors.As(err)
		return !isApp
	}
	return false
}

// Retrier handles retry logic with exponential backoff
type Retrier struct {
	config RetryConfig
	logger *logging.Logger
}

// NewRetrier creates a new retrier with the given configuration
func NewRetrier(config RetryConfig) *Retrier {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	if config.Retryable == nil {
		config.Retryable = DefaultRetryable
	}

	return &Retrier{config: config, logger: logging.GetLogger()}
}

// Execute runs operation until it succeeds, fails with a non-retryable
// error, the attempts run out or ctx is done.
func (r *Retrier) Execute(ctx context.Context, operation func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.Retryable(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.delay(attempt)
		r.logger.Debug("Upstream call failed, retrying",
			"error", err.Error(),
			"attempt", attempt,
			"delay", delay.String(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

func (r *Retrier) delay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	if r.config.Jitter {
		delay += rand.Float64() * 0.1 * delay
	}
	return time.Duration(delay)
}

// Guard combines a circuit breaker and a retrier for one upstream
type Guard struct {
	breaker *CircuitBreaker
	retrier *Retrier
}

// NewGuard creates a guard for the named upstream
func NewGuard(name string, retry RetryConfig) *Guard {
	return &Guard{
		breaker: NewCircuitBreaker(CircuitBreakerConfig{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		retrier: NewRetrier(retry),
	}
}

// Do runs operation through the breaker, retrying retryable failures
func (g *Guard) Do(ctx context.Context, operation func(context.Context) error) error {
	return g.retrier.Execute(ctx, func(ctx context.Context) error {
		return g.breaker.Execute(ctx, operation, g.retrier.config.Retryable)
	})
}

// State reports the breaker state
func (g *Guard) State() CircuitState {
	return g.breaker.State()
}

// Call runs fn through the guard and returns its result
func Call[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := g.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

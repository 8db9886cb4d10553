package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(ctx context.Context) error { return errors.New("upstream 503") }
func passing(ctx context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "ai-gateway", Timeout: time.Minute})

	for i := 0; i < 5; i++ {
		require.Error(t, cb.Execute(context.Background(), failing, nil))
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	}, nil)
	assert.True(t, IsCircuitBreakerError(err))
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "ai-gateway", Timeout: time.Minute})
	clock := time.Now()
	cb.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), failing, nil)
	}
	require.Equal(t, StateOpen, cb.State())

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), passing, nil))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "registry", Timeout: time.Minute})
	clock := time.Now()
	cb.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), failing, nil)
	}
	clock = clock.Add(2 * time.Minute)

	require.Error(t, cb.Execute(context.Background(), failing, nil))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_IgnoresCallerErrors(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "registry"})
	notFound := func(ctx context.Context) error { return appErrors.NewNotFoundError("code") }

	for i := 0; i < 10; i++ {
		_ = cb.Execute(context.Background(), notFound, DefaultRetryable)
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(10), cb.Counts().TotalSuccesses)
}

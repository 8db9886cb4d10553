package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikhilSetiya/securex/pkg/config"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 10, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 50*time.Second, d.RetryAfter)

	d, _ = l.Allow(ctx, "user-2")
	assert.True(t, d.Allowed, "keys are counted separately")

	now = now.Add(time.Minute)
	d, _ = l.Allow(ctx, "user-1")
	assert.True(t, d.Allowed, "a new window resets the count")
}

func TestRedisLimiter(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set INTEGRATION_TESTS=1 to run.")
	}

	client, err := NewRedisClient(config.RedisConfig{Host: "localhost", Port: 6379, DB: 15})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	l := NewRedisLimiter(client, "securex:test", 2, time.Minute)
	require.NoError(t, l.Health(ctx))

	key := fmt.Sprintf("k-%d", time.Now().UnixNano())
	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

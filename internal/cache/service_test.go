package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikhilSetiya/securex/internal/analysis"
	"github.com/NikhilSetiya/securex/pkg/errors"
)

func setupTestCache(t *testing.T) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store, DefaultConfig()), store
}

func TestCacheService_SetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	key := CacheKey{Prefix: "test", ID: "123"}
	value := map[string]interface{}{
		"name": "test",
		"age":  30,
	}

	err := cache.Set(ctx, key, value, time.Minute)
	require.NoError(t, err)

	var result map[string]interface{}
	err = cache.Get(ctx, key, &result)
	require.NoError(t, err)
	assert.Equal(t, "test", result["name"])
	assert.Equal(t, float64(30), result["age"]) // JSON unmarshaling converts to float64
}

func TestCacheService_Miss(t *testing.T) {
	cache, _ := setupTestCache(t)

	var result string
	err := cache.Get(context.Background(), CacheKey{Prefix: "test", ID: "missing"}, &result)
	assert.True(t, errors.IsNotFound(err))
}

func TestCacheService_Expiry(t *testing.T) {
	cache, store := setupTestCache(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	key := CacheKey{Prefix: "test", ID: "ttl"}
	require.NoError(t, cache.Set(ctx, key, "value", time.Minute))

	var got string
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, "value", got)

	now = now.Add(time.Minute)
	assert.True(t, errors.IsNotFound(cache.Get(ctx, key, &got)))
}

func TestCacheService_Delete(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	key := CacheKey{Prefix: "test", ID: "delete"}
	require.NoError(t, cache.Set(ctx, key, "value", time.Minute))
	require.NoError(t, cache.Delete(ctx, key))

	var got string
	assert.True(t, errors.IsNotFound(cache.Get(ctx, key, &got)))
}

func TestCacheKeyNamespace(t *testing.T) {
	cache, store := setupTestCache(t)
	require.NoError(t, cache.Set(context.Background(), CacheKey{Prefix: PrefixRepository, ID: "a/b"}, 1, 0))

	_, ok := store.entries["securex:repository:a/b"]
	assert.True(t, ok)
}

type countingInspector struct {
	calls int
	err   error
}

func (c *countingInspector) Inspect(_ context.Context, repoURL string) (*analysis.RepoMetadata, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &analysis.RepoMetadata{FullName: "acme/api", Languages: []string{"Go"}}, nil
}

func TestRepoCache_Inspect(t *testing.T) {
	cache, _ := setupTestCache(t)
	inner := &countingInspector{}
	repos := NewRepoCache(inner, cache)
	ctx := context.Background()

	first, err := repos.Inspect(ctx, "https://github.com/acme/api")
	require.NoError(t, err)
	second, err := repos.Inspect(ctx, "https://github.com/Acme/API.git")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first.FullName, second.FullName)
	assert.Equal(t, []string{"Go"}, second.Languages)
}

func TestRepoCache_ErrorsAreNotCached(t *testing.T) {
	cache, _ := setupTestCache(t)
	inner := &countingInspector{err: fmt.Errorf("rate limited")}
	repos := NewRepoCache(inner, cache)
	ctx := context.Background()

	_, err := repos.Inspect(ctx, "https://github.com/acme/api")
	require.Error(t, err)

	inner.err = nil
	meta, err := repos.Inspect(ctx, "https://github.com/acme/api")
	require.NoError(t, err)
	assert.Equal(t, "acme/api", meta.FullName)
	assert.Equal(t, 2, inner.calls)
}

func TestRepoCache_NonGitHubTargetsPassThrough(t *testing.T) {
	cache, _ := setupTestCache(t)
	inner := &countingInspector{}
	repos := NewRepoCache(inner, cache)

	_, _ = repos.Inspect(context.Background(), "https://gitlab.com/acme/api")
	_, _ = repos.Inspect(context.Background(), "https://gitlab.com/acme/api")
	assert.Equal(t, 2, inner.calls)
}

func TestRedisStore(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set INTEGRATION_TESTS=1 to run.")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	defer client.Close()

	ctx := context.Background()
	cache := NewService(NewRedisStore(client), &Config{Namespace: "securex:test", DefaultTTL: time.Minute})
	key := CacheKey{Prefix: PrefixRepository, ID: fmt.Sprintf("r-%d", time.Now().UnixNano())}

	var got string
	assert.True(t, errors.IsNotFound(cache.Get(ctx, key, &got)))

	require.NoError(t, cache.Set(ctx, key, "value", 0))
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, "value", got)

	require.NoError(t, cache.Delete(ctx, key))
	assert.True(t, errors.IsNotFound(cache.Get(ctx, key, &got)))
}

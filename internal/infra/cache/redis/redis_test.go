package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func TestQuotaStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr := startRedis(t)
	client, err := Connect(ctx, Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewQuotaStore(client, "test:")

	u, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Count)
	assert.False(t, u.IsPaid)

	for i := 1; i <= 2; i++ {
		u, ok, err := store.Reserve(ctx, "u1", 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, u.Count)
	}
	u, ok, err := store.Reserve(ctx, "u1", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, u.Count)
	assert.False(t, u.UpdatedAt.IsZero())

	u, err = store.Release(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Count)
	_, ok, err = store.Reserve(ctx, "u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	u, err = store.Upgrade(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.IsPaid)
	assert.Equal(t, 2, u.Count)

	assert.Equal(t, "2", mr.HGet("test:quota:u1", "count"))
	assert.Equal(t, "1", mr.HGet("test:quota:u1", "paid"))

	// paid users are admitted past the limit without counting
	u, ok, err = store.Reserve(ctx, "u1", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, u.Count)
}

func TestQuotaStoreReleaseNeverNegative(t *testing.T) {
	ctx := context.Background()
	mr := startRedis(t)
	client, err := Connect(ctx, Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewQuotaStore(client, "test:")
	u, err := store.Release(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Count)
	assert.False(t, mr.Exists("test:quota:u1"))
}

func TestRevocationListTTL(t *testing.T) {
	ctx := context.Background()
	mr := startRedis(t)
	client, err := Connect(ctx, Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRevocationList(client, "")
	require.NoError(t, l.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, l.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := l.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = l.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = l.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestConnectRequiresAddr(t *testing.T) {
	_, err := Connect(context.Background(), Options{})
	assert.Error(t, err)
}

func TestHealthChecker(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client, err := Connect(ctx, Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, HealthChecker{Client: client}.Check(ctx))
	mr.Close()
	assert.Error(t, HealthChecker{Client: client}.Check(ctx))
}

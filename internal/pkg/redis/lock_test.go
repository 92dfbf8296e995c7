package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestAcquireTenantLockExclusive(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	lock, err := client.AcquireTenantLock(ctx, "acme", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "mx:migrate:lock:acme", lock.Key())
	assert.True(t, mr.Exists("mx:migrate:lock:acme"))

	_, err = client.AcquireTenantLock(ctx, "acme", time.Hour)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := client.AcquireTenantLock(ctx, "globex", time.Hour)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lock.Release(ctx))
	assert.False(t, mr.Exists("mx:migrate:lock:acme"))
	require.NoError(t, lock.Release(ctx))

	again, err := client.AcquireTenantLock(ctx, "acme", time.Hour)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	lock, err := client.AcquireTenantLock(ctx, "acme", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	second, err := client.AcquireTenantLock(ctx, "acme", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx))
	assert.True(t, mr.Exists(second.Key()))
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "://nope")
	assert.Error(t, err)
}

package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	locker := NewLocker(client, time.Minute)
	name := "sweep:" + uuid.NewString()

	lease, err := locker.Acquire(ctx, name)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, name)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, lease.Release(ctx))

	again, err := locker.Acquire(ctx, name)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))

	// A released lease must not drop someone else's lock.
	third, err := locker.Acquire(ctx, name)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
	_, err = locker.Acquire(ctx, name)
	assert.ErrorIs(t, err, ErrNotAcquired)
	require.NoError(t, third.Release(ctx))
}

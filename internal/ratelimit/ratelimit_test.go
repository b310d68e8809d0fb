package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, limit), mr
}

func TestAdmitWithinLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := l.Admit(ctx, "1.2.3.4")
		require.True(t, res.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 3-(i+1), res.Remaining)
	}
}

func TestDeniesOverLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 2)
	ctx := context.Background()

	require.True(t, l.Admit(ctx, "1.2.3.4").Allowed)
	require.True(t, l.Admit(ctx, "1.2.3.4").Allowed)

	res := l.Admit(ctx, "1.2.3.4")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	// Reset points at the next minute boundary.
	assert.Equal(t, int64(0), res.Reset%60)
	assert.Greater(t, res.Reset, time.Now().Unix())
	assert.LessOrEqual(t, res.Reset, time.Now().Unix()+60)
}

func TestClientsCountedSeparately(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	ctx := context.Background()

	require.True(t, l.Admit(ctx, "1.2.3.4").Allowed)
	assert.False(t, l.Admit(ctx, "1.2.3.4").Allowed)
	assert.True(t, l.Admit(ctx, "5.6.7.8").Allowed, "a different client has its own bucket")
}

func TestBucketKeyExpires(t *testing.T) {
	l, mr := newTestLimiter(t, 1)
	ctx := context.Background()

	require.True(t, l.Admit(ctx, "1.2.3.4").Allowed)
	require.False(t, l.Admit(ctx, "1.2.3.4").Allowed)

	// Once the window key expires a fresh bucket starts.
	mr.FastForward(2 * time.Minute)
	assert.True(t, l.Admit(ctx, "1.2.3.4").Allowed)
}

func TestFailsOpenWhenBackendDown(t *testing.T) {
	l, mr := newTestLimiter(t, 2)
	ctx := context.Background()

	mr.Close()

	res := l.Admit(ctx, "1.2.3.4")
	assert.True(t, res.Allowed, "limiter must not block traffic when the store is down")
	assert.Equal(t, 2, res.Remaining)
}

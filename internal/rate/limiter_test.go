package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(2, time.Minute)
	base := time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return base }

	r1, _ := l.Allow(ctx, "ip")
	r2, _ := l.Allow(ctx, "ip")
	r3, _ := l.Allow(ctx, "ip")
	assert.True(t, r1.Allowed)
	assert.Equal(t, int64(1), r1.Remaining)
	assert.True(t, r2.Allowed)
	assert.False(t, r3.Allowed)
	assert.Equal(t, 50*time.Second, r3.RetryAfter)

	other, _ := l.Allow(ctx, "other-ip")
	assert.True(t, other.Allowed)

	l.now = func() time.Time { return base.Add(time.Minute) }
	r4, _ := l.Allow(ctx, "ip")
	assert.True(t, r4.Allowed)
	assert.Equal(t, int64(1), r4.CurrentHits)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	c := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	l := NewRedisLimiter(c, "", 3, time.Hour)
	assert.Equal(t, "rl:", l.Prefix)
	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i+1)
	}
	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.WindowTTL, time.Hour)
}

func TestRedisLimiterErrorsWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := rdb.NewClient(&rdb.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = c.Close() })
	mr.Close()

	_, err := NewRedisLimiter(c, "x:", 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

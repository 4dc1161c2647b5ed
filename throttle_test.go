package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryThrottleLockout(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	throttle := auth.NewMemoryThrottle(3, 15*time.Minute).WithClock(clock.Now)

	for i := 1; i <= 2; i++ {
		count, err := throttle.RecordFailure(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, i, count)

		decision, err := throttle.Check(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, i, decision.Failures)
	}

	_, err := throttle.RecordFailure(ctx, "bob")
	require.NoError(t, err)

	decision, err := throttle.Check(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, decision.Locked())
	assert.Equal(t, 15*time.Minute, decision.RetryAfter)

	clock.Advance(10 * time.Minute)
	decision, err = throttle.Check(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, decision.Locked())
	assert.Equal(t, 5*time.Minute, decision.RetryAfter)

	other, err := throttle.Check(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	clock.Advance(5 * time.Minute)
	decision, err = throttle.Check(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, throttle.Failures("bob"))
}

func TestMemoryThrottleWindowAnchoredAtLastFailure(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	throttle := auth.NewMemoryThrottle(2, 10*time.Minute).WithClock(clock.Now)

	_, err := throttle.RecordFailure(ctx, "bob")
	require.NoError(t, err)

	clock.Advance(8 * time.Minute)
	count, err := throttle.RecordFailure(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	clock.Advance(8 * time.Minute)
	decision, err := throttle.Check(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, decision.Locked())
	assert.Equal(t, 2*time.Minute, decision.RetryAfter)
}

func TestMemoryThrottleStaleFailuresRestartCount(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	throttle := auth.NewMemoryThrottle(3, time.Minute).WithClock(clock.Now)

	_, err := throttle.RecordFailure(ctx, "bob")
	require.NoError(t, err)
	_, err = throttle.RecordFailure(ctx, "bob")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	count, err := throttle.RecordFailure(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryThrottleRecordSuccessResets(t *testing.T) {
	ctx := context.Background()
	throttle := auth.NewMemoryThrottle(5, time.Hour)

	for i := 0; i < 4; i++ {
		_, err := throttle.RecordFailure(ctx, "bob")
		require.NoError(t, err)
	}
	assert.Equal(t, 4, throttle.Failures("bob"))

	require.NoError(t, throttle.RecordSuccess(ctx, "bob"))
	assert.Equal(t, 0, throttle.Failures("bob"))
}

func TestMemoryThrottleConcurrentFailures(t *testing.T) {
	ctx := context.Background()
	const n = 50
	throttle := auth.NewMemoryThrottle(n+10, time.Hour)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = throttle.Check(ctx, "target")
			_, err := throttle.RecordFailure(ctx, "target")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, throttle.Failures("target"))
}

func TestNewThrottleDisabled(t *testing.T) {
	ctx := context.Background()
	throttle := auth.NewThrottle(0, time.Hour)

	for i := 0; i < 100; i++ {
		count, err := throttle.RecordFailure(ctx, "bob")
		require.NoError(t, err)
		assert.Zero(t, count)
	}

	decision, err := throttle.Check(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.Failures)
}

package cache

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_JSONRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemoryWithClock(time.Minute, clock.Now)

	type payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, m.SetJSON(ctx, "k", payload{Code: "123456"}, 0))

	var got payload
	ok, err := m.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "123456", got.Code)

	clock.Advance(time.Minute)
	ok, err = m.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_SetIfNotExists(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := NewMemoryWithClock(time.Minute, clock.Now)

	ok, err := m.SetIfNotExists(ctx, "lock", "1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetIfNotExists(ctx, "lock", "1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(11 * time.Second)
	ok, err = m.SetIfNotExists(ctx, "lock", "1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_DeleteAndSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := NewMemoryWithClock(time.Minute, clock.Now)

	require.NoError(t, m.SetJSON(ctx, "a", 1, time.Second))
	require.NoError(t, m.SetJSON(ctx, "b", 2, time.Hour))
	require.NoError(t, m.Delete(ctx, "b"))

	clock.Advance(2 * time.Second)
	m.sweep()
	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestRedis_UnavailableBypasses(t *testing.T) {
	ctx := context.Background()
	var r *Redis

	ok, err := r.GetJSON(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, r.SetJSON(ctx, "k", 1, 0))
	assert.NoError(t, r.Delete(ctx, "k"))
	locked, err := r.SetIfNotExists(ctx, "k", "v", 0)
	assert.NoError(t, err)
	assert.False(t, locked)
	_, err = r.Incr(ctx, "n", 0)
	assert.Error(t, err)
	assert.Error(t, r.Ping(ctx))
	assert.False(t, r.Available())
}

func TestMemory_IncrIsAtomicAndExpires(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := NewMemoryWithClock(time.Minute, clock.Now)

	const workers = 50
	var wg sync.WaitGroup
	seen := make([]int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := m.Incr(ctx, "attempts", time.Second)
			assert.NoError(t, err)
			seen[i] = n
		}(i)
	}
	wg.Wait()

	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	for i, n := range seen {
		assert.Equal(t, int64(i+1), n)
	}

	clock.Advance(2 * time.Second)
	n, err := m.Incr(ctx, "attempts", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, m.SetJSON(ctx, "text", "abc", time.Minute))
	_, err = m.Incr(ctx, "text", time.Minute)
	assert.Error(t, err)
}

package otp

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryWithClock(time.Minute, clock.Now)
	s := NewService(store, config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 3})
	s.now = clock.Now
	return s, clock
}

func TestGenerate_SixDigits(t *testing.T) {
	s, _ := newTestService(t)
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := s.Generate()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestVerify_RoundTripBeforeExpiry(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestService(t)

	require.NoError(t, s.Store(ctx, "Ada@Example.com", "123456"))
	clock.Advance(9 * time.Minute)

	res, err := s.Verify(ctx, "ada@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, MessageVerified, res.Message)

	// consumed on success
	res, err = s.Verify(ctx, "ada@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, MessageNotFound, res.Message)
}

func TestVerify_ExpiredHasDistinctMessage(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestService(t)

	require.NoError(t, s.Store(ctx, "ada@example.com", "123456"))
	clock.Advance(10*time.Minute + time.Second)

	res, err := s.Verify(ctx, "ada@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.Expired)
	assert.Equal(t, MessageExpired, res.Message)
	assert.NotEqual(t, MessageMismatch, res.Message)
}

func TestVerify_MismatchThenTooManyAttempts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	require.NoError(t, s.Store(ctx, "ada@example.com", "123456"))

	for i := 0; i < 2; i++ {
		res, err := s.Verify(ctx, "ada@example.com", "000000")
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, MessageMismatch, res.Message)
	}

	res, err := s.Verify(ctx, "ada@example.com", "000000")
	require.NoError(t, err)
	assert.Equal(t, MessageTooManyAttempts, res.Message)

	// the correct code no longer works
	res, err = s.Verify(ctx, "ada@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, MessageNotFound, res.Message)
}

// slowReadStore widens the window between loading a code and checking it.
type slowReadStore struct {
	cache.Store
}

func (s slowReadStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	found, err := s.Store.GetJSON(ctx, key, dest)
	time.Sleep(2 * time.Millisecond)
	return found, err
}

func TestVerify_ConcurrentGuessesShareAttemptBudget(t *testing.T) {
	ctx := context.Background()
	store := slowReadStore{Store: cache.NewMemoryWithClock(time.Minute, time.Now)}
	s := NewService(store, config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 5})

	require.NoError(t, s.Store(ctx, "ada@example.com", "123456"))

	const guesses = 200
	results := make([]Result, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Verify(ctx, "ada@example.com", "000000")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	counts := map[string]int{}
	for _, res := range results {
		assert.False(t, res.Valid)
		counts[res.Message]++
	}
	assert.LessOrEqual(t, counts[MessageMismatch], 4)
	assert.GreaterOrEqual(t, counts[MessageTooManyAttempts], 1)

	res, err := s.Verify(ctx, "ada@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestStore_ResetsAttemptBudget(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	require.NoError(t, s.Store(ctx, "ada@example.com", "111111"))
	for i := 0; i < 2; i++ {
		res, err := s.Verify(ctx, "ada@example.com", "000000")
		require.NoError(t, err)
		require.Equal(t, MessageMismatch, res.Message)
	}

	require.NoError(t, s.Store(ctx, "ada@example.com", "222222"))
	for i := 0; i < 2; i++ {
		res, err := s.Verify(ctx, "ada@example.com", "000000")
		require.NoError(t, err)
		assert.Equal(t, MessageMismatch, res.Message)
	}
	res, err := s.Verify(ctx, "ada@example.com", "222222")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestStore_ReplacesPendingCode(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	require.NoError(t, s.Store(ctx, "ada@example.com", "111111"))
	require.NoError(t, s.Store(ctx, "ada@example.com", "222222"))

	res, err := s.Verify(ctx, "ada@example.com", "111111")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = s.Verify(ctx, "ada@example.com", "222222")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestStore_RejectsEmptyEmail(t *testing.T) {
	s, _ := newTestService(t)
	assert.ErrorIs(t, s.Store(context.Background(), "  ", "123456"), ErrInvalidInput)
}

func TestNewService_DefaultTTL(t *testing.T) {
	s := NewService(cache.NewMemoryWithClock(time.Minute, time.Now), config.OTPConfig{})
	assert.Equal(t, config.DefaultOTPTTL, s.TTL())
}

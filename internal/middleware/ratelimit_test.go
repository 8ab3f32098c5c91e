package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_MemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter(5)
	defer limiter.Close()
	handler := RateLimit(limiter, "token")(okHandler())

	request := func(addr string) int {
		r := httptest.NewRequest("POST", "/auth/token", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, request("10.0.0.1:1234"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1:5555"), "port does not reset the budget")

	// other clients are unaffected
	assert.Equal(t, http.StatusOK, request("10.0.0.2:1234"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	handler := RateLimit(failingLimiter{}, "default")(okHandler())

	r := httptest.NewRequest("GET", "/accounts/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMemoryLimiter_EvictIdle(t *testing.T) {
	limiter := NewMemoryLimiter(1)
	defer limiter.Close()

	ok, err := limiter.Allow(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)

	limiter.evictIdle(time.Now().Add(11 * time.Minute))

	ok, err = limiter.Allow(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok, "evicted key starts with a full bucket")
}

func TestRedisLimiter_Allow(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRedisLimiter(client, "ledger:rate_limit", 2)
	fixed := time.Unix(1_800_000_000, 0)
	limiter.now = func() time.Time { return fixed }
	key := "ledger:rate_limit:token:10.0.0.1:30000000"
	ctx := context.Background()

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	ok, err := limiter.Allow(ctx, "token:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr(key).SetVal(2)
	ok, err = limiter.Allow(ctx, "token:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectIncr(key).SetVal(3)
	ok, err = limiter.Allow(ctx, "token:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	ok, err = limiter.Allow(ctx, "token:10.0.0.1")
	assert.Error(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryLimiter_CloseStopsCleanup(t *testing.T) {
	limiter := NewMemoryLimiter(10)

	closed := make(chan struct{})
	go func() {
		limiter.Close()
		limiter.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}

	select {
	case <-limiter.done:
	default:
		t.Fatal("cleanup goroutine still running")
	}
}

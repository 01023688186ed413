package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimited(cfg RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RateLimitMiddleware(cfg))
	return e
}

func hit(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func serve(t *testing.T, cfg RateLimitConfig) int {
	t.Helper()
	return hit(newLimited(cfg), "192.0.2.1").Code
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Unix(1_700_000_000, int64(250*time.Millisecond))
	e := newLimited(RateLimitConfig{
		Redis:          rdb,
		RPS:            2,
		RetryAfterHint: true,
		Now:            func() time.Time { return now },
	})

	assert.Equal(t, http.StatusNoContent, hit(e, "192.0.2.1").Code)
	assert.Equal(t, http.StatusNoContent, hit(e, "192.0.2.1").Code)

	rec := hit(e, "192.0.2.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limited"}`, rec.Body.String())

	// other clients have their own window
	assert.Equal(t, http.StatusNoContent, hit(e, "192.0.2.2").Code)

	// next window starts fresh
	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, hit(e, "192.0.2.1").Code)

	assert.True(t, mr.Exists("rl:ip:192.0.2.1:1700000000"))
}

func TestRateLimitDisabled(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, serve(t, RateLimitConfig{RPS: 0}))
	assert.Equal(t, http.StatusNoContent, serve(t, RateLimitConfig{RPS: 10, Redis: nil}))
}

func TestRateLimitFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	assert.Equal(t, http.StatusNoContent, serve(t, RateLimitConfig{Redis: rdb, RPS: 1}))
}

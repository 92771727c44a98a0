package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/heart-disease-api/internal/config"
	"github.com/iliyamo/heart-disease-api/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/predict", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))

	r1 := serve(e, http.MethodPost, "/predict", nil)
	r2 := serve(e, http.MethodPost, "/predict", nil)
	r3 := serve(e, http.MethodPost, "/predict", nil)

	assert.Equal(t, http.StatusNoContent, r1.Code)
	assert.Equal(t, "1", r1.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusNoContent, r2.Code)
	assert.Equal(t, http.StatusTooManyRequests, r3.Code)
	assert.Equal(t, "2", r3.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, r3.Header().Get("Retry-After"))
	assert.Contains(t, r3.Body.String(), "rate limit exceeded")
}

func TestTokenBucketKeysByIP(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: 5 * time.Hour, KeyStrategy: "ip", Prefix: "rl"}
	e := echo.New()
	e.POST("/predict", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))

	a := map[string]string{echo.HeaderXForwardedFor: "10.0.0.1"}
	b := map[string]string{echo.HeaderXForwardedFor: "10.0.0.2"}
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/predict", a).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodPost, "/predict", a).Code)
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/predict", b).Code)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	e := echo.New()
	e.POST("/predict", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/predict", nil).Code)
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.POST("/predict", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/predict", nil).Code)
}

func TestRedisCacheHitAfterMiss(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}
	calls := 0
	e := echo.New()
	e.GET("/model-info", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"model_type": "LogisticRegression"})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/model-info", nil)
	second := serve(e, http.MethodGet, "/model-info", nil)

	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")
}

func TestRedisCacheSkipsErrorsAndOtherMethods(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}
	calls := 0
	e := echo.New()
	mw := NewRedisCache(cfg, rdb)
	e.GET("/flaky", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "down"})
	}, mw)
	e.POST("/predict", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	}, mw)

	serve(e, http.MethodGet, "/flaky", nil)
	serve(e, http.MethodGet, "/flaky", nil)
	rec := serve(e, http.MethodPost, "/predict", nil)
	assert.Equal(t, 3, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestEntryRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodeEntry(201, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodeEntry(bs)
	require.True(t, ok)
	assert.Equal(t, 201, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodeEntry(bs[:5])
	assert.False(t, ok)
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	g := e.Group("/v1", JWTAuth("s3cret"), RequireRole("OPERATOR"))
	g.GET("/who", func(c echo.Context) error { return c.String(http.StatusOK, c.Get(CtxSubject).(string)) })

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/v1/who", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		serve(e, http.MethodGet, "/v1/who", map[string]string{"Authorization": "Bearer garbage"}).Code)

	wrongKey, err := utils.NewAccessToken("other", "operator", "OPERATOR", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized,
		serve(e, http.MethodGet, "/v1/who", map[string]string{"Authorization": "Bearer " + wrongKey.Token}).Code)

	viewer, err := utils.NewAccessToken("s3cret", "bob", "VIEWER", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden,
		serve(e, http.MethodGet, "/v1/who", map[string]string{"Authorization": "Bearer " + viewer.Token}).Code)

	op, err := utils.NewAccessToken("s3cret", "operator", "OPERATOR", time.Minute)
	require.NoError(t, err)
	rec := serve(e, http.MethodGet, "/v1/who", map[string]string{"Authorization": "Bearer " + op.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "operator", rec.Body.String())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })

	rec := serve(e, http.MethodGet, "/ok", map[string]string{echo.HeaderXRequestID: "rid-1"})
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))
	rec = serve(e, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/county-health/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[{"state":"MA"}]`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `[{"state":"MA"}]`, string(body))

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok, "header length past end")
}

func TestCacheKey_DependsOnBody(t *testing.T) {
	a := cacheKeyFrom("cache", "POST", "/county_data", []byte(`{"zip":"02138","measure_name":"Adult obesity"}`))
	b := cacheKeyFrom("cache", "POST", "/county_data", []byte(`{"zip":"02139","measure_name":"Adult obesity"}`))
	c := cacheKeyFrom("cache", "POST", "/county_data", []byte(`{"zip":"02138","measure_name":"Adult obesity"}`))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.True(t, strings.HasPrefix(a, "cache:"))
}

func TestReadBody_RestoresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/county_data", strings.NewReader(`{"zip":"02138"}`))
	body, ok, err := readBody(req)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"zip":"02138"}`, string(body))

	again, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"zip":"02138"}`, string(again))
}

func TestReadBody_TooLarge(t *testing.T) {
	big := strings.Repeat("x", maxKeyBody+10)
	req := httptest.NewRequest(http.MethodPost, "/county_data", strings.NewReader(big))
	_, ok, err := readBody(req)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Len(t, again, len(big), "handler still sees the full body")
}

func TestNewRedisCache_PassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	calls := 0
	e.POST("/county_data", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "fresh")
	}, NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"POST": true}}, nil))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/county_data", strings.NewReader(`{}`)))
		assert.Equal(t, "fresh", rec.Body.String())
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)

	n, err := InvalidateCache(context.Background(), nil, "cache")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestCaptureWriter_Limit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("defg"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.EqualValues(t, 7, cw.size)
	assert.Equal(t, "abcdefg", rec.Body.String())
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func TestCache_HitReplaysOnlyResponseHeaders(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := &memStore{data: map[string][]byte{}}
	calls := 0

	e := echo.New()
	e.Use(RequestID())
	e.POST("/county_data", func(c echo.Context) error {
		calls++
		c.Response().Header().Set("X-Dataset", "v1")
		return c.JSON(http.StatusOK, []string{"MA"})
	},
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 10, RefillTokens: 1, RefillInterval: time.Hour, Prefix: "rl"}, nil, log),
		newCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"POST": true}, Prefix: "cache"}, store),
	)

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/county_data", strings.NewReader(`{"zip":"02138"}`)))
		return rec
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	require.Len(t, store.data, 1)

	second := send()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, calls, "second request served from cache")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, `["MA"]`, second.Body.String())
	assert.Equal(t, []string{"v1"}, second.Header().Values("X-Dataset"))

	ids := second.Header().Values(HeaderRequestID)
	require.Len(t, ids, 1)
	assert.NotEqual(t, first.Header().Get(HeaderRequestID), ids[0])
	assert.Equal(t, []string{"8"}, second.Header().Values("X-RateLimit-Remaining"))
	assert.Len(t, second.Header().Values(echo.HeaderContentType), 1)

	for _, payload := range store.data {
		_, hdr, _, ok := decodePayload(payload)
		require.True(t, ok)
		assert.Empty(t, hdr.Get(HeaderRequestID))
		assert.Empty(t, hdr.Get("X-RateLimit-Remaining"))
	}
}

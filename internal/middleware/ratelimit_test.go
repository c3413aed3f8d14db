package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/county-health/internal/config"
)

func TestLocalLimiter(t *testing.T) {
	l := newLocalLimiter(config.RateLimitConfig{Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour})

	ok, _, _ := l.take("a")
	assert.True(t, ok)
	ok, _, _ = l.take("a")
	assert.True(t, ok)
	ok, _, retry := l.take("a")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Minute)

	ok, _, _ = l.take("b")
	assert.True(t, ok, "keys have separate buckets")
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/county_data", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/county_data")

	assert.Equal(t, "rl:ip:203.0.113.7", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:route:POST /county_data", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "route"}, c))
	assert.Equal(t, "rl:ip:203.0.113.7:route:POST /county_data", buildRateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func TestNewTokenBucket_Disabled(t *testing.T) {
	log, _ := test.NewNullLogger()
	e := echo.New()
	e.POST("/county_data", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, log))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/county_data", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestAsInt64(t *testing.T) {
	assert.EqualValues(t, 3, asInt64(int64(3)))
	assert.EqualValues(t, 4, asInt64("4"))
	assert.EqualValues(t, 0, asInt64(nil))
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/county-health/internal/config"
	"github.com/iliyamo/county-health/internal/handler"
	"github.com/iliyamo/county-health/internal/metrics"
	"github.com/iliyamo/county-health/internal/middleware"
)

// PublicDeps carries what the public listener's middleware needs. Redis may
// be nil; the cache is then skipped and rate limiting stays in process.
type PublicDeps struct {
	Log       logrus.FieldLogger
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// NewPublic builds the public Echo instance. It serves POST /county_data
// and nothing else; every other path or method gets the 404 JSON body.
func NewPublic(d PublicDeps, h *handler.CountyDataHandler) *echo.Echo {
	e := newEcho(d.Log)
	// Request id first so every later line can carry it.
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Metrics(e))
	e.Use(echomw.Recover())

	RegisterRoutes(e, h,
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
		middleware.NewRedisCache(d.Cache, d.Redis),
	)
	return e
}

// RegisterRoutes maps the lookup endpoint. Route-level middleware runs in
// the given order, so the limiter sits in front of the cache and cached
// answers still count against the caller's budget.
func RegisterRoutes(e *echo.Echo, h *handler.CountyDataHandler, mw ...echo.MiddlewareFunc) {
	e.POST("/county_data", h.Post, mw...)
	// Echo answers OPTIONS on any known path with 204 by itself; the
	// endpoint accepts POST only.
	e.OPTIONS("/county_data", handler.NotFound)
}

// NewOps builds the operations Echo instance with /healthz and /metrics.
// It is meant for a separate, non-public port.
func NewOps(log logrus.FieldLogger, store handler.Pinger) *echo.Echo {
	e := newEcho(log)
	e.Use(echomw.Recover())
	RegisterOps(e, store)
	return e
}

// RegisterOps maps the health check and the Prometheus endpoint.
func RegisterOps(e *echo.Echo, store handler.Pinger) {
	// Load balancers and monitors poll this; it pings the store.
	e.GET("/healthz", handler.Health(store))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

func newEcho(log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)
	return e
}

package middleware

import (
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/county-health/internal/metrics"
)

// Metrics records request counts and latency per registered route. Paths
// that match no route share a single label so scanners cannot blow up the
// series count.
func Metrics(e *echo.Echo) echo.MiddlewareFunc {
	var (
		once   sync.Once
		routes map[string]bool
	)
	known := func(p string) bool {
		once.Do(func() {
			routes = make(map[string]bool)
			for _, r := range e.Routes() {
				routes[r.Path] = true
			}
		})
		return routes[p]
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if !known(route) {
				route = ""
			}
			done := metrics.RequestStarted(c.Request().Method, route)
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			done(c.Response().Status)
			return nil
		}
	}
}

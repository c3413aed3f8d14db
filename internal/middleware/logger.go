package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one structured line per request. Request bodies are
// never logged.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			res := c.Response()
			entry := log.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     res.Status,
				"bytes":      res.Size,
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  c.RealIP(),
				"request_id": RequestIDFrom(c),
			})
			switch {
			case res.Status >= 500:
				entry.Error("request")
			case res.Status == 429:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}

package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestIDKey is the echo context key holding the request id.
const RequestIDKey = "request_id"

// RequestID reuses a well-formed incoming X-Request-ID or mints a new UUID,
// stores it on the context and echoes it in the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderRequestID)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			c.Set(RequestIDKey, id)
			c.Response().Header().Set(HeaderRequestID, id)
			return next(c)
		}
	}
}

// RequestIDFrom returns the id set by RequestID, or "" outside of it.
func RequestIDFrom(c echo.Context) string {
	if s, ok := c.Get(RequestIDKey).(string); ok {
		return s
	}
	return ""
}

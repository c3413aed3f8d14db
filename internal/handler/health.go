package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is implemented by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the store answers. It returns "ok" with 200, or a
// 503 JSON body when the ping fails within two seconds.
func Health(store Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, errorBody(http.StatusServiceUnavailable, "Store unavailable"))
		}
		return c.String(http.StatusOK, "ok")
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NotFound rejects a request as if its route did not exist.
func NotFound(echo.Context) error {
	return echo.ErrNotFound
}

// HTTPErrorHandler renders errors escaping the handlers in the standard
// error shape. Unknown routes and wrong methods are both reported as 404
// "Endpoint not found"; any non-HTTP error becomes a generic 500.
func HTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg = http.StatusText(status)
		} else if log != nil {
			log.WithError(err).Error("unhandled error")
		}

		switch status {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			status, msg = http.StatusNotFound, "Endpoint not found"
			c.Response().Header().Del(echo.HeaderAllow)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, errorBody(status, msg))
		}
		if werr != nil && log != nil {
			log.WithError(werr).Warn("write error response")
		}
	}
}

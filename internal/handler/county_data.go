// Package handler exposes the HTTP handlers of the county health service.
// Every error response has the shape {"error": <message>, "status": <code>}
// and never echoes request input back to the caller.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/county-health/internal/metrics"
	"github.com/iliyamo/county-health/internal/model"
	"github.com/iliyamo/county-health/internal/service"
)

// maxRequestBody caps how much of a request body is read.
const maxRequestBody = 1 << 20

// CountyDataLookup is implemented by *service.CountyDataService.
type CountyDataLookup interface {
	Lookup(ctx context.Context, body []byte) ([]model.HealthRecord, error)
}

// CountyDataHandler serves POST /county_data.
type CountyDataHandler struct {
	Service CountyDataLookup
	Log     logrus.FieldLogger
}

// errorBody builds the standard error payload.
func errorBody(status int, msg string) echo.Map {
	return echo.Map{"error": msg, "status": status}
}

// Post decodes the body, runs the lookup and maps its outcome to a status:
// 200 with a JSON array of records, 418 for the teapot marker, 400 for a
// missing parameter, 404 for anything that cannot match, 500 when the store
// fails.
func (h *CountyDataHandler) Post(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBody))
	if err != nil {
		metrics.RecordLookup(metrics.OutcomeBadRequest)
		return c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, "Unreadable request body"))
	}

	recs, err := h.Service.Lookup(c.Request().Context(), body)
	switch {
	case err == nil:
		metrics.RecordLookup(metrics.OutcomeFound)
		return c.JSON(http.StatusOK, recs)
	case errors.Is(err, service.ErrTeapot):
		metrics.RecordLookup(metrics.OutcomeTeapot)
		return c.JSON(http.StatusTeapot, echo.Map{"coffee": "teapot"})
	case errors.Is(err, service.ErrMissingZip):
		metrics.RecordLookup(metrics.OutcomeBadRequest)
		return c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, "Missing required parameter: zip"))
	case errors.Is(err, service.ErrMissingMeasure):
		metrics.RecordLookup(metrics.OutcomeBadRequest)
		return c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, "Missing required parameter: measure_name"))
	case errors.Is(err, service.ErrMissingParameter):
		metrics.RecordLookup(metrics.OutcomeBadRequest)
		return c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, "Missing required parameter"))
	case errors.Is(err, service.ErrInvalidZip):
		metrics.RecordLookup(metrics.OutcomeNotFound)
		return c.JSON(http.StatusNotFound, errorBody(http.StatusNotFound, "Invalid zip code format. Must be 5 digits."))
	case errors.Is(err, service.ErrUnknownMeasure):
		metrics.RecordLookup(metrics.OutcomeNotFound)
		return c.JSON(http.StatusNotFound, errorBody(http.StatusNotFound, "Invalid measure_name"))
	case errors.Is(err, service.ErrNotFound):
		metrics.RecordLookup(metrics.OutcomeNotFound)
		return c.JSON(http.StatusNotFound, errorBody(http.StatusNotFound, "No data found for the given zip code and measure"))
	default:
		metrics.RecordLookup(metrics.OutcomeError)
		if h.Log != nil {
			h.Log.WithError(err).Error("county_data: lookup failed")
		}
		return c.JSON(http.StatusInternalServerError, errorBody(http.StatusInternalServerError, "Database error"))
	}
}

// Package service holds the request-independent logic behind the HTTP
// handlers: the county data lookup state machine, first-run dataset
// bootstrap and dataset event publishing.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/county-health/internal/model"
)

// ErrTeapot is returned when the request carries coffee == "teapot".
var ErrTeapot = errors.New("i'm a teapot")

// ErrMissingParameter is returned when zip or measure_name is absent.
var ErrMissingParameter = errors.New("missing required parameter")

// ErrNotFound covers an unknown measure, a malformed ZIP and a lookup that
// matched nothing. All of them map to the same status.
var ErrNotFound = errors.New("no data found")

// Refinements of the errors above, for callers that report which check
// failed. errors.Is matches both the refinement and its parent.
var (
	ErrMissingZip     = fmt.Errorf("%w: zip", ErrMissingParameter)
	ErrMissingMeasure = fmt.Errorf("%w: measure_name", ErrMissingParameter)
	ErrInvalidZip     = fmt.Errorf("%w: zip is not five digits", ErrNotFound)
	ErrUnknownMeasure = fmt.Errorf("%w: unrecognized measure_name", ErrNotFound)
)

// HealthRecordFinder is the store side of the lookup.
type HealthRecordFinder interface {
	FindByZipAndMeasure(ctx context.Context, zip, measure string) ([]model.HealthRecord, error)
}

// CountyDataService validates lookup requests and resolves them against the
// store. It keeps no per-request state and is safe for concurrent use.
type CountyDataService struct {
	finder HealthRecordFinder
	log    logrus.FieldLogger
}

// NewCountyDataService wires the service to its store.
func NewCountyDataService(finder HealthRecordFinder, log logrus.FieldLogger) *CountyDataService {
	if finder == nil {
		panic("nil finder passed to NewCountyDataService")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CountyDataService{finder: finder, log: log}
}

// Lookup runs one request body through the validation steps in order:
// teapot marker, required fields, ZIP shape, measure vocabulary, store
// lookup. The first failing step decides the error.
func (s *CountyDataService) Lookup(ctx context.Context, body []byte) ([]model.HealthRecord, error) {
	req := model.ParseCountyDataRequest(body)

	if req.Coffee == "teapot" {
		return nil, ErrTeapot
	}
	if req.Zip == "" {
		return nil, ErrMissingZip
	}
	if req.MeasureName == "" {
		return nil, ErrMissingMeasure
	}
	if !model.IsZIP(req.Zip) {
		return nil, ErrInvalidZip
	}
	if !model.IsMeasure(req.MeasureName) {
		return nil, ErrUnknownMeasure
	}

	recs, err := s.finder.FindByZipAndMeasure(ctx, req.Zip, req.MeasureName)
	if err != nil {
		s.log.WithError(err).WithField("measure_name", req.MeasureName).Error("county data lookup failed")
		return nil, fmt.Errorf("lookup: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs, nil
}

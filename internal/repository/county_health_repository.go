package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/county-health/internal/loader"
	"github.com/iliyamo/county-health/internal/model"
)

// healthColumns maps each output key to its column in the health rankings
// file. SQLite resolves column names case-insensitively, so the source's
// mixed case headers (State, Measure_name, ...) match as well.
var healthColumns = map[string]string{
	"state":                           "State",
	"county":                          "County",
	"state_code":                      "State_code",
	"county_code":                     "County_code",
	"year_span":                       "Year_span",
	"measure_name":                    "Measure_name",
	"measure_id":                      "Measure_id",
	"numerator":                       "Numerator",
	"denominator":                     "Denominator",
	"raw_value":                       "Raw_value",
	"confidence_interval_lower_bound": "Confidence_Interval_Lower_Bound",
	"confidence_interval_upper_bound": "Confidence_Interval_Upper_Bound",
	"data_release_year":               "Data_Release_Year",
	"fipscode":                        "fipscode",
}

// CountyHealthRepo joins the ZIP mapping table to the health rankings table.
type CountyHealthRepo struct {
	db    *sqlx.DB
	query string
}

// NewCountyHealthRepo builds the lookup query once for the given tables.
// driverName is the database/sql driver the handle was opened with.
func NewCountyHealthRepo(db *sql.DB, driverName, zipTable, healthTable string) (*CountyHealthRepo, error) {
	for _, t := range []string{zipTable, healthTable} {
		if !loader.ValidIdentifier(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTable, t)
		}
	}
	return &CountyHealthRepo{
		db:    sqlx.NewDb(db, driverName),
		query: lookupQuery(zipTable, healthTable),
	}, nil
}

// lookupQuery selects every health row whose FIPS code belongs to one of the
// counties the ZIP maps to. The ZIP table's county_code is the five digit
// county FIPS code, i.e. the health table's state_code + county_code, which
// the health table also carries pre-joined as fipscode.
func lookupQuery(zipTable, healthTable string) string {
	sel := make([]string, len(model.HealthRecordColumns))
	for i, key := range model.HealthRecordColumns {
		col := "h." + loader.QuoteIdentifier(healthColumns[key])
		sel[i] = fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '') AS %s", col, key)
	}
	return fmt.Sprintf(`SELECT
		%s
	FROM %s h
	WHERE h."fipscode" IN (SELECT z."county_code" FROM %s z WHERE z."zip" = ?)
	  AND h."Measure_name" = ?`,
		strings.Join(sel, ",\n\t\t"),
		loader.QuoteIdentifier(healthTable),
		loader.QuoteIdentifier(zipTable))
}

// FindByZipAndMeasure returns all health records for the counties that zip
// maps to and the given measure. No rows is not an error.
func (r *CountyHealthRepo) FindByZipAndMeasure(ctx context.Context, zip, measure string) ([]model.HealthRecord, error) {
	out := []model.HealthRecord{}
	if err := r.db.SelectContext(ctx, &out, r.query, zip, measure); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping verifies the store is reachable.
func (r *CountyHealthRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

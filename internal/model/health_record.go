package model

// HealthRecord is one row of the county health rankings table as returned
// by POST /county_data. Every value is text exactly as loaded from the
// source file.
//
// Fields:
//  State, County           – state abbreviation and county name.
//  StateCode, CountyCode   – state FIPS (2 digits) and county FIPS (3 digits).
//  YearSpan                – period the measure covers, e.g. "2016-2018".
//  MeasureName, MeasureID  – one of the recognized measures and its id.
//  Numerator, Denominator  – raw counts behind RawValue (may be empty).
//  RawValue                – the measure's value.
//  ConfidenceIntervalLowerBound / UpperBound – CI bounds (may be empty).
//  DataReleaseYear         – year the rankings were published.
//  FIPSCode                – StateCode + CountyCode.
type HealthRecord struct {
	ConfidenceIntervalLowerBound string `json:"confidence_interval_lower_bound" db:"confidence_interval_lower_bound"`
	ConfidenceIntervalUpperBound string `json:"confidence_interval_upper_bound" db:"confidence_interval_upper_bound"`
	County                       string `json:"county" db:"county"`
	CountyCode                   string `json:"county_code" db:"county_code"`
	DataReleaseYear              string `json:"data_release_year" db:"data_release_year"`
	Denominator                  string `json:"denominator" db:"denominator"`
	FIPSCode                     string `json:"fipscode" db:"fipscode"`
	MeasureID                    string `json:"measure_id" db:"measure_id"`
	MeasureName                  string `json:"measure_name" db:"measure_name"`
	Numerator                    string `json:"numerator" db:"numerator"`
	RawValue                     string `json:"raw_value" db:"raw_value"`
	State                        string `json:"state" db:"state"`
	StateCode                    string `json:"state_code" db:"state_code"`
	YearSpan                     string `json:"year_span" db:"year_span"`
}

// HealthRecordColumns lists the output keys in the order they are selected.
var HealthRecordColumns = []string{
	"state",
	"county",
	"state_code",
	"county_code",
	"year_span",
	"measure_name",
	"measure_id",
	"numerator",
	"denominator",
	"raw_value",
	"confidence_interval_lower_bound",
	"confidence_interval_upper_bound",
	"data_release_year",
	"fipscode",
}

// Package mosmix queries the DWD MOSMIX point forecasts.
//
// A Request describes what to fetch, Client.Filter narrows it to station
// identifiers and StationsResult.Query downloads the forecasts lazily,
// yielding one Response per station.
package mosmix

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"mosmix/internal/table"
	"mosmix/pkg/dwd"
)

// ErrNoResult is returned by First when the query yields nothing
var ErrNoResult = errors.New("mosmix: query returned no result")

// Type selects the MOSMIX product
type Type string

const (
	// Small is MOSMIX_S: hourly issues, a reduced parameter set, all stations in one file
	Small Type = "MOSMIX_S"
	// Large is MOSMIX_L: four issues a day, the full parameter set, one file per station
	Large Type = "MOSMIX_L"
)

// Dataset returns the name used in the dataset column
func (t Type) Dataset() string {
	switch t {
	case Small:
		return "small"
	case Large:
		return "large"
	default:
		return strings.ToLower(string(t))
	}
}

// IssueSelector picks the forecast run. The zero value selects the latest
// run published by DWD.
type IssueSelector struct {
	at time.Time
}

// Latest selects the most recent forecast run
var Latest = IssueSelector{}

// IssuedAt selects the run issued at t
func IssuedAt(t time.Time) IssueSelector {
	return IssueSelector{at: t.UTC()}
}

// IsLatest reports whether the selector defers to the latest run
func (s IssueSelector) IsLatest() bool {
	return s.at.IsZero()
}

// Time returns the selected issue time, zero for Latest
func (s IssueSelector) Time() time.Time {
	return s.at
}

// String returns the token used in DWD file names
func (s IssueSelector) String() string {
	if s.IsLatest() {
		return "LATEST"
	}
	return s.at.Format("2006010215")
}

// Parameter is a lower-case MOSMIX element code such as "ttt"
type Parameter string

// Request describes a forecast query
type Request struct {
	// Parameters to return, in column order. Empty returns every element in the file.
	Parameters []Parameter `validate:"dive,mosmix_parameter"`

	// IssueTime defaults to the latest run
	IssueTime IssueSelector `validate:"-"`

	Type Type `validate:"oneof=MOSMIX_S MOSMIX_L"`

	// Tidy returns one row per station, parameter and date instead of one column per parameter
	Tidy bool

	// Humanize replaces element codes with descriptive names
	Humanize bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("mosmix_parameter", func(fl validator.FieldLevel) bool {
		_, ok := LookupParameter(Parameter(fl.Field().String()))
		return ok
	})
	return v
}

// Validate checks the request before any download happens
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &dwd.Error{Code: dwd.ErrCodeInvalidRequest, Message: "invalid MOSMIX request", Err: err}
	}

	if !r.IssueTime.IsLatest() {
		t := r.IssueTime.Time()
		if !t.Equal(t.Truncate(time.Hour)) {
			return dwd.NewError(dwd.ErrCodeInvalidRequest, fmt.Sprintf("issue time %s is not on a full hour", t.Format(time.RFC3339)), nil)
		}
	}

	return nil
}

// normalized returns a copy with lower-case parameter codes
func (r Request) normalized() Request {
	params := make([]Parameter, len(r.Parameters))
	for i, p := range r.Parameters {
		params[i] = Parameter(strings.ToLower(string(p)))
	}
	r.Parameters = params
	return r
}

// Response holds the forecast for one station
type Response struct {
	StationID string
	IssueTime time.Time

	// Stations is the metadata table of the filtered stations
	Stations *table.Frame

	// Values is the forecast table
	Values *table.Frame
}

// ProductInfo is the product definition header of a MOSMIX file
type ProductInfo struct {
	Issuer    string
	ProductID string
	IssueTime time.Time
	TimeSteps []time.Time
	UndefSign string
	Models    []ReferencedModel
}

// StationForecast holds the parsed placemark of one station
type StationForecast struct {
	StationID string
	Name      string
	Longitude float64
	Latitude  float64
	Height    float64
	Elements  []Element
}

// Element is one forecast series. Missing values are NaN.
type Element struct {
	Code   Parameter
	Values []float64
}

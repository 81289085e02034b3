// Package example prints the latest MOSMIX forecast of one station
package example

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"mosmix/internal/table"
	"mosmix/pkg/dwd/mosmix"
)

// StationID is the station the example queries, Hamburg-Innenstadt
const StationID = "P0489"

// BuildRequest returns the forecast request of the example
func BuildRequest() mosmix.Request {
	return mosmix.Request{
		Parameters: []mosmix.Parameter{
			mosmix.TemperatureAirMean200,
			mosmix.WindSpeed,
			mosmix.RadiationGlobal,
		},
		IssueTime: mosmix.Latest,
		Type:      mosmix.Small,
		Tidy:      false,
		Humanize:  false,
	}
}

// Runner fetches the first forecast for StationID and prints it
type Runner struct {
	source Source
	out    io.Writer
	logger *slog.Logger

	// configureDisplay is called once per Run before anything is printed
	configureDisplay func()
}

// Option configures a Runner
type Option func(*Runner)

// WithDisplayConfig replaces the display setup that runs before printing
func WithDisplayConfig(fn func()) Option {
	return func(r *Runner) {
		r.configureDisplay = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner printing to out. By default every display
// limit is lifted so tables print in full.
func NewRunner(source Source, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		source: source,
		out:    out,
		logger: slog.Default(),
		configureDisplay: func() {
			table.SetDisplayOptions(table.UnlimitedDisplayOptions())
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the example. Errors are returned unwrapped.
func (r *Runner) Run(ctx context.Context) error {
	r.configureDisplay()

	req := BuildRequest()
	values, err := r.source.Filter(ctx, req, StationID)
	if err != nil {
		return err
	}

	resp, err := mosmix.First(values.Query(ctx))
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "forecast received", "station_id", resp.StationID, "issue_time", resp.IssueTime)

	if err := OutputSection(r.out, "Metadata", resp.Stations); err != nil {
		return err
	}
	return OutputSection(r.out, "Forecasts", resp.Values)
}

// OutputSection writes title framed by dash lines, the table and a blank line
func OutputSection(w io.Writer, title string, data fmt.Stringer) error {
	line := strings.Repeat("-", utf8.RuneCountInString(title))
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n%s\n\n", line, title, line, data.String())
	return err
}

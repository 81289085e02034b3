package mosmix

import (
	"math"

	"mosmix/internal/table"
)

// selectedSeries returns the parameters to output and their values. A
// requested parameter the file does not carry gets a nil series.
func selectedSeries(req Request, f StationForecast) ([]Parameter, [][]float64) {
	byCode := make(map[Parameter][]float64, len(f.Elements))
	for _, e := range f.Elements {
		byCode[e.Code] = e.Values
	}

	params := req.Parameters
	if len(params) == 0 {
		params = make([]Parameter, len(f.Elements))
		for i, e := range f.Elements {
			params[i] = e.Code
		}
	}

	series := make([][]float64, len(params))
	for i, p := range params {
		series[i] = byCode[p]
	}
	return params, series
}

func valueAt(series []float64, i int) float64 {
	if i >= len(series) {
		return math.NaN()
	}
	return series[i]
}

// wideFrame builds one column per parameter
func wideFrame(req Request, product ProductInfo, f StationForecast) (*table.Frame, error) {
	params, series := selectedSeries(req, f)

	fields := []table.Field{
		{Name: "station_id", Kind: table.String},
		{Name: "dataset", Kind: table.String},
		{Name: "date", Kind: table.Time},
	}
	for _, p := range params {
		fields = append(fields, table.Field{Name: columnName(p, req.Humanize), Kind: table.Float})
	}

	frame := table.NewFrame(fields...)
	dataset := req.Type.Dataset()
	for i, ts := range product.TimeSteps {
		row := make([]any, 0, len(fields))
		row = append(row, f.StationID, dataset, ts)
		for _, s := range series {
			row = append(row, valueAt(s, i))
		}
		if err := frame.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// tidyFrame builds one row per parameter and date
func tidyFrame(req Request, product ProductInfo, f StationForecast) (*table.Frame, error) {
	params, series := selectedSeries(req, f)

	frame := table.NewFrame(
		table.Field{Name: "station_id", Kind: table.String},
		table.Field{Name: "dataset", Kind: table.String},
		table.Field{Name: "parameter", Kind: table.String},
		table.Field{Name: "date", Kind: table.Time},
		table.Field{Name: "value", Kind: table.Float},
		table.Field{Name: "quality", Kind: table.Float},
	)

	dataset := req.Type.Dataset()
	for j, p := range params {
		name := columnName(p, req.Humanize)
		for i, ts := range product.TimeSteps {
			// MOSMIX carries no quality flags
			if err := frame.AppendRow(f.StationID, dataset, name, ts, valueAt(series[j], i), nil); err != nil {
				return nil, err
			}
		}
	}
	return frame, nil
}

func valuesFrame(req Request, product ProductInfo, f StationForecast) (*table.Frame, error) {
	if req.Tidy {
		return tidyFrame(req, product, f)
	}
	return wideFrame(req, product, f)
}

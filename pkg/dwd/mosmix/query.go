package mosmix

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"mosmix/internal/table"
	"mosmix/pkg/dwd"
	"mosmix/pkg/dwd/stations"
)

// Getter downloads a file. Implemented by *dwd.Client.
type Getter interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// ClientConfig configures a Client
type ClientConfig struct {
	BaseURL           string
	StationCatalogURL string
	Logger            *slog.Logger

	// Concurrency bounds parallel MOSMIX_L downloads in All
	Concurrency int
}

// Client queries MOSMIX forecasts
type Client struct {
	getter      Getter
	baseURL     string
	stations    *stations.Query
	logger      *slog.Logger
	concurrency int
}

// NewClient creates a MOSMIX client. Empty config fields take the DWD defaults.
func NewClient(getter Getter, cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = dwd.DefaultBaseURL
	}
	if cfg.StationCatalogURL == "" {
		cfg.StationCatalogURL = dwd.DefaultStationCatalogURL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Client{
		getter:      getter,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		stations:    stations.NewQuery(cfg.StationCatalogURL, getter, cfg.Logger),
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// SmallURL returns the MOSMIX_S file holding all stations
func (c *Client) SmallURL(issue IssueSelector) string {
	return c.baseURL + "/MOSMIX_S/all_stations/kml/MOSMIX_S_" + issue.String() + "_240.kmz"
}

// LargeURL returns the MOSMIX_L file of one station
func (c *Client) LargeURL(issue IssueSelector, stationID string) string {
	return c.baseURL + "/MOSMIX_L/single_stations/" + stationID + "/kml/MOSMIX_L_" + issue.String() + "_" + stationID + ".kmz"
}

// Filter validates req and narrows it to the given station identifiers.
// Nothing is downloaded apart from the station catalogue.
func (c *Client) Filter(ctx context.Context, req Request, ids ...string) (*StationsResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, dwd.NewError(dwd.ErrCodeInvalidRequest, "at least one station id is required", nil)
	}

	collection, err := c.stations.Execute(ctx)
	if err != nil {
		return nil, err
	}

	found, missing := collection.Filter(ids)
	if len(missing) > 0 {
		c.logger.DebugContext(ctx, "stations not in catalogue", "ids", missing)
	}

	return &StationsResult{
		client:   c,
		request:  req.normalized(),
		ids:      ids,
		stations: found,
		meta:     stations.Frame(found),
	}, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// StationsResult is a request narrowed to stations. Forecasts are only
// downloaded once Query is iterated.
type StationsResult struct {
	client   *Client
	request  Request
	ids      []string
	stations []stations.Station
	meta     *table.Frame
}

// Request returns the validated request
func (r *StationsResult) Request() Request {
	return r.request
}

// StationIDs returns the filtered identifiers in request order
func (r *StationsResult) StationIDs() []string {
	result := make([]string, len(r.ids))
	copy(result, r.ids)
	return result
}

// Stations returns the catalogue entries of the filtered stations
func (r *StationsResult) Stations() []stations.Station {
	result := make([]stations.Station, len(r.stations))
	copy(result, r.stations)
	return result
}

// Frame returns the station metadata table
func (r *StationsResult) Frame() *table.Frame {
	return r.meta
}

// Query returns a lazy sequence of per-station responses. MOSMIX_S yields
// in file order, MOSMIX_L in filter order. An error ends the sequence.
func (r *StationsResult) Query(ctx context.Context) iter.Seq2[*Response, error] {
	if r.request.Type == Large {
		return r.queryLarge(ctx)
	}
	return r.querySmall(ctx)
}

func (r *StationsResult) querySmall(ctx context.Context) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		url := r.client.SmallURL(r.request.IssueTime)
		r.client.logger.DebugContext(ctx, "downloading MOSMIX file", "url", url)

		body, err := r.client.getter.Get(ctx, url)
		if err != nil {
			yield(nil, err)
			return
		}
		defer body.Close()

		wanted := make(map[string]bool, len(r.ids))
		for _, id := range r.ids {
			wanted[id] = true
		}

		var product ProductInfo
		stopped := false
		err = NewParser().ParseKMZ(body, Callbacks{
			Want: func(id string) bool { return wanted[id] },
			OnProduct: func(p ProductInfo) error {
				product = p
				return nil
			},
			OnPlacemark: func(f StationForecast) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				resp, err := r.response(product, f)
				if err != nil {
					return err
				}
				if !yield(resp, nil) {
					stopped = true
					return ErrStop
				}
				return nil
			},
		})
		if stopped || err == nil {
			return
		}
		yield(nil, parseError(url, err))
	}
}

func (r *StationsResult) queryLarge(ctx context.Context) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		for _, id := range r.ids {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			resp, err := r.fetchLarge(ctx, id)
			if err != nil {
				yield(nil, err)
				return
			}
			if resp == nil {
				continue
			}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

// fetchLarge downloads the MOSMIX_L file of one station. It returns nil
// when the file has no placemark for the station.
func (r *StationsResult) fetchLarge(ctx context.Context, id string) (*Response, error) {
	url := r.client.LargeURL(r.request.IssueTime, id)
	r.client.logger.DebugContext(ctx, "downloading MOSMIX file", "url", url)

	body, err := r.client.getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var product ProductInfo
	var result *Response
	err = NewParser().ParseKMZ(body, Callbacks{
		Want: func(stationID string) bool { return stationID == id },
		OnProduct: func(p ProductInfo) error {
			product = p
			return nil
		},
		OnPlacemark: func(f StationForecast) error {
			resp, err := r.response(product, f)
			if err != nil {
				return err
			}
			result = resp
			return ErrStop
		},
	})
	if err != nil {
		return nil, parseError(url, err)
	}
	return result, nil
}

// All collects every response. MOSMIX_L files are downloaded concurrently,
// the result keeps filter order.
func (r *StationsResult) All(ctx context.Context) ([]*Response, error) {
	if r.request.Type != Large {
		var result []*Response
		for resp, err := range r.Query(ctx) {
			if err != nil {
				return nil, err
			}
			result = append(result, resp)
		}
		return result, nil
	}

	responses := make([]*Response, len(r.ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.client.concurrency)
	for i, id := range r.ids {
		g.Go(func() error {
			resp, err := r.fetchLarge(gctx, id)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]*Response, 0, len(responses))
	for _, resp := range responses {
		if resp != nil {
			result = append(result, resp)
		}
	}
	return result, nil
}

func (r *StationsResult) response(product ProductInfo, f StationForecast) (*Response, error) {
	values, err := valuesFrame(r.request, product, f)
	if err != nil {
		return nil, err
	}
	return &Response{
		StationID: f.StationID,
		IssueTime: product.IssueTime,
		Stations:  r.meta,
		Values:    values,
	}, nil
}

// parseError keeps *dwd.Error and context errors, everything else is a
// malformed document
func parseError(url string, err error) error {
	var dwdErr *dwd.Error
	if errors.As(err, &dwdErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &dwd.Error{
		Code:    dwd.ErrCodeInvalidResponse,
		Message: "failed to parse MOSMIX document",
		URL:     url,
		Err:     err,
	}
}

// First returns the first response of seq without pulling a second one
func First(seq iter.Seq2[*Response, error]) (*Response, error) {
	for resp, err := range seq {
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
	return nil, ErrNoResult
}

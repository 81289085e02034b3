package stations

import (
	"context"
	"io"
	"log/slog"

	"mosmix/pkg/dwd"
)

// Getter downloads a file. Implemented by *dwd.Client.
type Getter interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// Query handles downloads of the MOSMIX station catalogue
type Query struct {
	catalogURL string
	client     Getter
	logger     *slog.Logger
}

// NewQuery creates a new station catalogue query
func NewQuery(catalogURL string, client Getter, logger *slog.Logger) *Query {
	if logger == nil {
		logger = slog.Default()
	}
	return &Query{
		catalogURL: catalogURL,
		client:     client,
		logger:     logger,
	}
}

// Execute downloads and parses the catalogue
func (q *Query) Execute(ctx context.Context) (*Collection, error) {
	return q.ExecuteWithParser(ctx, NewParser())
}

// ExecuteWithParser downloads the catalogue and uses the provided parser
func (q *Query) ExecuteWithParser(ctx context.Context, parser *Parser) (*Collection, error) {
	body, err := q.client.Get(ctx, q.catalogURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	collection, err := parser.Parse(body)
	if err != nil {
		return nil, &dwd.Error{
			Code:    dwd.ErrCodeInvalidResponse,
			Message: "failed to parse station catalogue",
			URL:     q.catalogURL,
			Err:     err,
		}
	}

	q.logger.DebugContext(ctx, "station catalogue loaded", "stations", len(collection.Stations))
	return collection, nil
}

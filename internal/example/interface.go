package example

import (
	"context"
	"iter"

	"mosmix/pkg/dwd/mosmix"
)

// Source narrows a forecast request to stations
type Source interface {
	// Filter validates req and restricts it to the given station identifiers
	Filter(ctx context.Context, req mosmix.Request, stationIDs ...string) (Values, error)
}

// Values is a filtered forecast query, evaluated lazily
type Values interface {
	// Query yields one response per station
	Query(ctx context.Context) iter.Seq2[*mosmix.Response, error]
}

// clientSource adapts *mosmix.Client to Source
type clientSource struct {
	client *mosmix.Client
}

// NewSource wraps a MOSMIX client
func NewSource(client *mosmix.Client) Source {
	return &clientSource{client: client}
}

func (s *clientSource) Filter(ctx context.Context, req mosmix.Request, stationIDs ...string) (Values, error) {
	result, err := s.client.Filter(ctx, req, stationIDs...)
	if err != nil {
		return nil, err
	}
	return result, nil
}

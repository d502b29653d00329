package lucida

import (
	"context"
	"net/url"

	"github.com/ryanlong1004/lucida-flow/extract"
	"github.com/ryanlong1004/lucida-flow/governor"
	"github.com/ryanlong1004/lucida-flow/sliceutil"
)

type SearchResult struct {
	Query     string           `json:"query"`
	Service   string           `json:"service"`
	SearchURL string           `json:"search_url"`
	Source    string           `json:"source"`
	Tracks    []extract.Track  `json:"tracks"`
	Albums    []extract.Album  `json:"albums"`
	Artists   []extract.Artist `json:"artists"`
}

// Search queries the remote site for the given service and returns up to
// limit records per listing, in source ranking order. An empty result is
// a valid response and carries no error.
func (c *Client) Search(ctx context.Context, query, service string, limit int) (*SearchResult, error) {
	apiService, country, ok := normalizeService(service)
	if !ok {
		return nil, ErrUnknownService
	}

	params := make(url.Values, 3)
	params.Set("service", apiService)
	params.Set("country", country)
	params.Set("query", query)

	searchURL := c.cfg.BaseURL + "/search"

	resp, err := c.governedFetch(ctx, governor.Request{URL: searchURL, Query: params})
	if nil != err {
		return nil, err
	}

	outcome := c.extractor.Extract(resp.Body)
	c.logger.Debug().
		Str("query", query).
		Str("service", service).
		Stringer("source", outcome.Source).
		Int("tracks", len(outcome.Tracks)).
		Msg("Search results extracted")

	return &SearchResult{
		Query:     query,
		Service:   service,
		SearchURL: searchURL + "?" + params.Encode(),
		Source:    outcome.Source.String(),
		Tracks:    sliceutil.Truncate(outcome.Tracks, limit),
		Albums:    sliceutil.Truncate(outcome.Albums, limit),
		Artists:   sliceutil.Truncate(outcome.Artists, limit),
	}, nil
}

package lucida

import (
	"context"
	"net/url"

	"github.com/ryanlong1004/lucida-flow/cache"
	"github.com/ryanlong1004/lucida-flow/extract"
	"github.com/ryanlong1004/lucida-flow/governor"
)

// TrackInfo fetches the page for a source-service track URL and extracts
// its metadata, expecting exactly one record. Zero records from a page
// that should describe a track is surfaced as an error.
func (c *Client) TrackInfo(ctx context.Context, trackURL string) (*extract.Track, error) {
	item, err := c.caches.TrackInfo.Fetch(trackURL, cache.DefaultTrackInfoTTL, func() (*extract.Track, error) {
		return c.fetchTrackInfo(ctx, trackURL)
	})
	if nil != err {
		return nil, err
	}
	return item.Value(), nil
}

func (c *Client) fetchTrackInfo(ctx context.Context, trackURL string) (*extract.Track, error) {
	params := make(url.Values, 1)
	params.Set("url", trackURL)

	resp, err := c.governedFetch(ctx, governor.Request{URL: c.cfg.BaseURL, Query: params})
	if nil != err {
		return nil, err
	}

	outcome := c.extractor.Extract(resp.Body)
	if len(outcome.Tracks) == 0 {
		c.logger.Warn().
			Str("track_url", trackURL).
			Stringer("source", outcome.Source).
			Int("body_length", len(resp.Body)).
			Msg("Track page yielded no extractable record")
		return nil, ErrMalformed
	}

	track := outcome.Tracks[0]
	if track.URL == "" {
		track.URL = trackURL
	}
	return &track, nil
}

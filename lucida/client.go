// Package lucida is the orchestrating client for the remote music
// service: it composes the governed request executor with the response
// extractor to implement search, track info, and download preparation.
// One client per logical identity against the remote site; budgets are
// never shared process-wide.
package lucida

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ryanlong1004/lucida-flow/cache"
	"github.com/ryanlong1004/lucida-flow/clock"
	"github.com/ryanlong1004/lucida-flow/config"
	"github.com/ryanlong1004/lucida-flow/extract"
	"github.com/ryanlong1004/lucida-flow/governor"
	"github.com/ryanlong1004/lucida-flow/ratelimit"
)

// BinaryFetcher is the browser-automation collaborator that materializes
// the actual binary once governance clears. Implementations own transport
// details; the client only guarantees the invocation is governed.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, resolvedURL string) (data []byte, suggestedFilename string, mimeType string, err error)
}

type Client struct {
	cfg       *config.Config
	exec      *governor.Executor
	extractor *extract.Extractor
	caches    *cache.Cache
	fetcher   BinaryFetcher
	retry     RetryPolicy
	logger    zerolog.Logger
}

func New(cfg *config.Config, fetcher BinaryFetcher, logger zerolog.Logger, opts ...governor.Option) (*Client, error) {
	clk := clock.System()

	limiter := ratelimit.NewLimiter(
		ratelimit.Config{
			PerMinute: cfg.RequestsPerMinute,
			PerHour:   cfg.RequestsPerHour,
			MinDelay:  time.Duration(cfg.MinDelaySeconds * float64(time.Second)),
		},
		clk,
	)

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	exec := governor.New(limiter, ratelimit.NewBackoff(), timeout, clk, logger, opts...)

	extractor, err := extract.New(cfg.BaseURL)
	if nil != err {
		return nil, err
	}

	return &Client{
		cfg:       cfg,
		exec:      exec,
		extractor: extractor,
		caches:    cache.New(),
		fetcher:   fetcher,
		retry:     DefaultRetryPolicy(),
		logger:    logger,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

type Limits struct {
	PerMinute       int     `json:"per_minute"`
	PerHour         int     `json:"per_hour"`
	MinDelaySeconds float64 `json:"min_delay_seconds"`
}

type LimiterStats struct {
	ratelimit.Stats

	ConsecutiveErrors int    `json:"consecutive_errors"`
	Limits            Limits `json:"limits"`
}

func (c *Client) Stats() LimiterStats {
	limCfg := c.exec.LimiterConfig()
	return LimiterStats{
		Stats:             c.exec.LimiterStats(),
		ConsecutiveErrors: c.exec.ConsecutiveErrors(),
		Limits: Limits{
			PerMinute:       limCfg.PerMinute,
			PerHour:         limCfg.PerHour,
			MinDelaySeconds: limCfg.MinDelay.Seconds(),
		},
	}
}

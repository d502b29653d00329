package cache

import (
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/ryanlong1004/lucida-flow/extract"
)

var (
	DefaultTrackInfoTTL    = 1 * time.Hour
	DefaultDownloadLinkTTL = 10 * time.Minute
)

type Cache struct {
	TrackInfo     TrackInfoCache
	DownloadLinks DownloadLinkCache
}

func New() *Cache {
	trackInfoCache := ccache.New(
		ccache.Configure[*extract.Track]().
			MaxSize(1000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	downloadLinkCache := ccache.New(
		ccache.Configure[string]().
			MaxSize(1000).
			GetsPerPromote(3).
			ItemsToPrune(1),
	)

	return &Cache{
		TrackInfo: TrackInfoCache{
			c:   trackInfoCache,
			mux: sync.Mutex{},
		},
		DownloadLinks: DownloadLinkCache{
			c:   downloadLinkCache,
			mux: sync.Mutex{},
		},
	}
}

type TrackInfoCache struct {
	c   *ccache.Cache[*extract.Track]
	mux sync.Mutex
}

func (c *TrackInfoCache) Fetch(k string, ttl time.Duration, fetch func() (*extract.Track, error)) (*ccache.Item[*extract.Track], error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.c.Fetch(k, ttl, fetch)
}

type DownloadLinkCache struct {
	c   *ccache.Cache[string]
	mux sync.Mutex
}

func (c *DownloadLinkCache) Fetch(k string, ttl time.Duration, fetch func() (string, error)) (*ccache.Item[string], error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.c.Fetch(k, ttl, fetch)
}

package lucida

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xeptore/flaw/v8"

	"github.com/ryanlong1004/lucida-flow/cache"
	"github.com/ryanlong1004/lucida-flow/errutil"
	"github.com/ryanlong1004/lucida-flow/governor"
	"github.com/ryanlong1004/lucida-flow/httputil"
)

type DownloadResult struct {
	Path      string `json:"filepath"`
	SizeBytes int64  `json:"size"`
}

// Download resolves a track URL to its direct resource locator through a
// governed page fetch, clears governance a second time, and hands the
// transfer to the browser-automation collaborator. The binary lands under
// outPath when given, else under the configured download directory.
func (c *Client) Download(ctx context.Context, trackURL, outPath string) (*DownloadResult, error) {
	link, err := c.resolveDownloadLink(ctx, trackURL)
	if nil != err {
		return nil, err
	}

	// The collaborator performs its own transfer; governance still has to
	// clear before it fires.
	if err := c.exec.Acquire(ctx); nil != err {
		return nil, err
	}

	data, suggestedName, mimeType, err := c.fetcher.FetchBinary(ctx, link)
	if nil != err {
		c.exec.ReportFailure()
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP := flaw.P{
			"track_url":     trackURL,
			"download_link": link,
			"err_debug_tree": errutil.Tree(err).FlawP(),
		}
		return nil, flaw.From(fmt.Errorf("failed to fetch binary: %v", err)).Append(flawP)
	}
	c.exec.ReportSuccess()

	filePath := outPath
	if filePath == "" {
		filePath = filepath.Join(c.cfg.DownloadDir, downloadFilename(suggestedName, trackURL, mimeType))
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); nil != err {
		flawP := flaw.P{"file_path": filePath, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to create download directory: %v", err)).Append(flawP)
	}

	if err := os.WriteFile(filePath, data, 0o644); nil != err {
		flawP := flaw.P{"file_path": filePath, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to write downloaded file: %v", err)).Append(flawP)
	}

	c.logger.Info().Str("path", filePath).Int("size", len(data)).Msg("Download finished")

	return &DownloadResult{
		Path:      filePath,
		SizeBytes: int64(len(data)),
	}, nil
}

func (c *Client) resolveDownloadLink(ctx context.Context, trackURL string) (string, error) {
	item, err := c.caches.DownloadLinks.Fetch(trackURL, cache.DefaultDownloadLinkTTL, func() (string, error) {
		params := make(url.Values, 1)
		params.Set("url", trackURL)

		resp, err := c.governedFetch(ctx, governor.Request{URL: c.cfg.BaseURL, Query: params})
		if nil != err {
			return "", err
		}

		link := c.extractor.FindDownloadLink(resp.Body)
		if link == "" {
			return "", ErrNoDownloadLink
		}
		return link, nil
	})
	if nil != err {
		return "", err
	}
	return item.Value(), nil
}

// downloadFilename prefers the collaborator's suggestion, then the last
// URL path segment, then a timestamped fallback. A missing extension is
// inferred from the MIME type.
func downloadFilename(suggested, trackURL, mimeType string) string {
	name := strings.TrimSpace(suggested)
	if name == "" {
		if u, err := url.Parse(trackURL); nil == err {
			name = filepath.Base(strings.TrimRight(u.Path, "/"))
			name = lo.Ternary(name == "." || name == "/", "", name)
		}
	}
	if name == "" {
		name = fmt.Sprintf("download_%d", time.Now().Unix())
	}

	if filepath.Ext(name) == "" {
		name += httputil.ExtForContentType(mimeType)
	}
	return name
}

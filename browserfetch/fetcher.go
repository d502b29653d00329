// Package browserfetch performs binary transfers through a real Chrome
// instance so download requests carry the same fingerprint and cookies
// as an interactive visitor. It implements lucida.BinaryFetcher.
package browserfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/ryanlong1004/lucida-flow/errutil"
)

type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty launches a local one.
	RemoteURL string
	// WarmupURL is navigated once after connect so the site sets its
	// cookies before any transfer.
	WarmupURL string
	// NavTimeout bounds page navigation and resource fetches.
	NavTimeout time.Duration
	Headless   bool
}

func (c *Config) fillDefaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
}

type Fetcher struct {
	cfg     Config
	logger  zerolog.Logger
	mux     sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
}

func New(cfg Config, logger zerolog.Logger) *Fetcher {
	cfg.fillDefaults()
	return &Fetcher{cfg: cfg, logger: logger}
}

// Start connects to Chrome, retrying transient connect failures, and
// prepares a stealth page warmed up against the target site.
func (f *Fetcher) Start(ctx context.Context) error {
	f.mux.Lock()
	defer f.mux.Unlock()

	if nil != f.browser {
		return nil
	}

	op := func() error { return f.connect(ctx) }
	if err := backoff.Retry(op, backoff.WithContext(newBackoff(2*time.Minute), ctx)); nil != err {
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		if errutil.IsFlaw(err) {
			return err
		}
		return flaw.From(fmt.Errorf("failed to connect to browser: %v", err))
	}

	page, err := stealth.Page(f.browser)
	if nil != err {
		return flaw.From(fmt.Errorf("failed to create stealth page: %v", err))
	}
	f.page = page

	if f.cfg.WarmupURL != "" {
		navCtx, cancel := context.WithTimeout(ctx, f.cfg.NavTimeout)
		defer cancel()
		if err := page.Context(navCtx).Navigate(f.cfg.WarmupURL); nil != err {
			f.logger.Warn().Err(err).Str("url", f.cfg.WarmupURL).Msg("Warmup navigation failed")
		} else if err := page.Context(navCtx).WaitLoad(); nil != err {
			f.logger.Warn().Err(err).Msg("Warmup page load timed out")
		}
	}

	return nil
}

func (f *Fetcher) connect(ctx context.Context) error {
	wsURL := f.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(f.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if nil != err {
			return backoff.Permanent(flaw.From(fmt.Errorf("failed to launch browser: %v", err)))
		}
		f.lnch = l
		wsURL = u
		f.logger.Debug().Str("ws_url", wsURL).Msg("Launched local browser")
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); nil != err {
		f.logger.Warn().Err(err).Msg("Browser connect attempt failed")
		return err
	}
	f.browser = b
	return nil
}

// FetchBinary transfers the resource at resolvedURL through the warmed
// browser page. The suggested filename comes from the URL path; the MIME
// type is sniffed from the payload when Chrome reports none.
func (f *Fetcher) FetchBinary(ctx context.Context, resolvedURL string) ([]byte, string, string, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if nil == f.page {
		return nil, "", "", flaw.From(errors.New("browser fetcher is not started"))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.NavTimeout)
	defer cancel()

	data, err := f.page.Context(fetchCtx).GetResource(resolvedURL)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, "", "", ctx.Err()
		}
		flawP := flaw.P{"url": resolvedURL, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, "", "", flaw.From(fmt.Errorf("failed to fetch resource through browser: %v", err)).Append(flawP)
	}

	name := filenameFromURL(resolvedURL)
	mimeType := http.DetectContentType(data)
	f.logger.Debug().
		Str("url", resolvedURL).
		Str("mime_type", mimeType).
		Int("size", len(data)).
		Msg("Fetched binary through browser")
	return data, name, mimeType, nil
}

// Close shuts down the page, the browser connection, and any locally
// launched Chrome process.
func (f *Fetcher) Close() {
	f.mux.Lock()
	defer f.mux.Unlock()

	if nil != f.page {
		if err := f.page.Close(); nil != err {
			f.logger.Warn().Err(err).Msg("Failed to close browser page")
		}
		f.page = nil
	}
	if nil != f.browser {
		if err := f.browser.Close(); nil != err {
			f.logger.Warn().Err(err).Msg("Failed to close browser")
		}
		f.browser = nil
	}
	if nil != f.lnch {
		f.lnch.Cleanup()
		f.lnch = nil
	}
}

func newBackoff(timeout time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.Multiplier = 1.1
	b.MaxElapsedTime = timeout
	b.MaxInterval = 10 * time.Second
	return b
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if nil != err {
		return ""
	}
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

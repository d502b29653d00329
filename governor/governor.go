// Package governor wraps a single outbound HTTP attempt with the request
// budgets: sliding-window admission, outstanding backoff delay, outcome
// classification, and feedback into the backoff tracker. Retry looping is
// deliberately left to callers so the primitive stays composable.
package governor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/ryanlong1004/lucida-flow/clock"
	"github.com/ryanlong1004/lucida-flow/constant"
	"github.com/ryanlong1004/lucida-flow/errutil"
	"github.com/ryanlong1004/lucida-flow/httputil"
	"github.com/ryanlong1004/lucida-flow/ratelimit"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRateLimited
	OutcomeTransient
	OutcomePermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeTransient:
		return "transient_failure"
	case OutcomePermanent:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
}

func (r Request) flawP() flaw.P {
	return flaw.P{
		"method": r.Method,
		"url":    r.URL,
		"query":  r.Query.Encode(),
	}
}

type Response struct {
	Outcome    Outcome
	StatusCode int
	Header     http.Header
	Body       []byte

	// RetryAfter is the delay that was applied before returning, for
	// rate-limited and transient outcomes. The executor has already
	// suspended for it; callers retrying may proceed immediately.
	RetryAfter time.Duration
}

// Executor serializes all governed traffic for one client identity. One
// executor per identity; sharing a process-wide instance would
// cross-contaminate budgets.
type Executor struct {
	mux     sync.Mutex
	limiter *ratelimit.Limiter
	backoff *ratelimit.Backoff
	client  *http.Client
	clk     clock.Clock
	logger  zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	// nextAllowed is derived from the last backoff delay; requests before
	// it suspend for the remainder.
	nextAllowed time.Time
}

type Option func(*Executor)

// WithSleepFunc replaces the suspension primitive. Deterministic tests
// substitute a recording clock-advancing function here.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = fn
	}
}

func New(limiter *ratelimit.Limiter, backoff *ratelimit.Backoff, timeout time.Duration, clk clock.Clock, logger zerolog.Logger, opts ...Option) *Executor {
	e := &Executor{
		limiter: limiter,
		backoff: backoff,
		client:  &http.Client{Timeout: timeout}, //nolint:exhaustruct
		clk:     clk,
		logger:  logger,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) LimiterStats() ratelimit.Stats {
	return e.limiter.Stats()
}

func (e *Executor) ConsecutiveErrors() int {
	return e.backoff.ConsecutiveErrors()
}

func (e *Executor) LimiterConfig() ratelimit.Config {
	return e.limiter.Config()
}

// Execute performs at most one network attempt, suspending first until the
// window budgets and any outstanding backoff delay clear. A canceled
// context abandons the wait without recording an event.
func (e *Executor) Execute(ctx context.Context, req Request) (*Response, error) {
	e.mux.Lock()
	defer e.mux.Unlock()

	if wait := e.limiter.Admit(); wait > 0 {
		e.logger.Debug().Dur("wait", wait).Msg("Rate limit window full, waiting")
		if err := e.sleep(ctx, wait); nil != err {
			return nil, err
		}
	}

	if pending := e.nextAllowed.Sub(e.clk.Now()); pending > 0 {
		e.logger.Debug().Dur("wait", pending).Msg("Backoff delay outstanding, waiting")
		if err := e.sleep(ctx, pending); nil != err {
			return nil, err
		}
	}

	e.limiter.Record()

	resp, err := e.attempt(ctx, req)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || isTransportErr(err) {
			return e.transientFailure(ctx, req, 0, nil)
		}
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			e.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		body, err := httputil.ReadOptionalResponseBody(ctx, resp)
		if nil != err {
			return nil, err
		}
		e.backoff.OnSuccess()
		return &Response{
			Outcome:    OutcomeSuccess,
			StatusCode: code,
			Header:     resp.Header,
			Body:       body,
		}, nil

	case code == http.StatusTooManyRequests:
		retryAfter, ok := parseRetryAfter(resp.Header, e.clk.Now())
		delay := e.backoff.OnRateLimited(retryAfter, ok)
		e.nextAllowed = e.clk.Now().Add(delay)
		e.logger.Warn().Dur("retry_after", delay).Msg("Rate limited by server")
		if err := e.sleep(ctx, delay); nil != err {
			return nil, err
		}
		return &Response{
			Outcome:    OutcomeRateLimited,
			StatusCode: code,
			Header:     resp.Header,
			RetryAfter: delay,
		}, nil

	case code >= 500:
		body, err := httputil.ReadOptionalResponseBody(ctx, resp)
		if nil != err {
			return nil, err
		}
		return e.transientFailure(ctx, req, code, body)

	default:
		// Remaining 4xx codes are not capacity problems; the backoff
		// streak is left untouched.
		body, err := httputil.ReadOptionalResponseBody(ctx, resp)
		if nil != err {
			return nil, err
		}
		e.logger.Warn().Int("status_code", code).Str("url", req.URL).Msg("Permanent failure response")
		return &Response{
			Outcome:    OutcomePermanent,
			StatusCode: code,
			Header:     resp.Header,
			Body:       body,
		}, nil
	}
}

func (e *Executor) transientFailure(ctx context.Context, req Request, code int, body []byte) (*Response, error) {
	delay := e.backoff.OnFailure()
	e.nextAllowed = e.clk.Now().Add(delay)
	e.logger.Warn().
		Int("status_code", code).
		Int("consecutive_errors", e.backoff.ConsecutiveErrors()).
		Dur("backoff", delay).
		Str("url", req.URL).
		Msg("Transient failure, backing off")
	if err := e.sleep(ctx, delay); nil != err {
		return nil, err
	}
	return &Response{
		Outcome:    OutcomeTransient,
		StatusCode: code,
		Body:       body,
		RetryAfter: delay,
	}, nil
}

func (e *Executor) attempt(ctx context.Context, req Request) (*http.Response, error) {
	reqURL, err := url.Parse(req.URL)
	if nil != err {
		flawP := req.flawP()
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, flaw.From(fmt.Errorf("failed to parse request URL: %v", err)).Append(flawP)
	}
	if len(req.Query) > 0 {
		reqURL.RawQuery = req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP := req.flawP()
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, flaw.From(fmt.Errorf("failed to create request: %v", err)).Append(flawP)
	}

	httpReq.Header.Set("User-Agent", constant.UserAgent)
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	return e.client.Do(httpReq)
}

// parseRetryAfter reads a Retry-After header as either delay seconds or an
// HTTP date.
func parseRetryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); nil == err && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); nil == err {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
	}
	return 0, false
}

func isTransportErr(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

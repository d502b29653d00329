package lucida

import (
	"context"
	"errors"
	"fmt"

	"github.com/xeptore/flaw/v8"
	"gopkg.in/matryer/try.v1"

	"github.com/ryanlong1004/lucida-flow/errutil"
	"github.com/ryanlong1004/lucida-flow/governor"
	"github.com/ryanlong1004/lucida-flow/must"
)

// RetryPolicy bounds how a governed request is re-attempted per outcome
// kind. The executor has already suspended for the classified delay by the
// time an attempt returns, so a retry may fire immediately.
type RetryPolicy struct {
	MaxAttempts      int
	RetryRateLimited bool
	RetryTransient   bool
}

// DefaultRetryPolicy retries rate-limited and transient outcomes once.
// Permanent failures are never retried, and an extraction-empty result is
// a valid response, not a retryable condition.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      2,
		RetryRateLimited: true,
		RetryTransient:   true,
	}
}

func (p RetryPolicy) retryable(outcome governor.Outcome) bool {
	switch outcome {
	case governor.OutcomeRateLimited:
		return p.RetryRateLimited
	case governor.OutcomeTransient:
		return p.RetryTransient
	default:
		return false
	}
}

// governedFetch runs one request through the executor under the client's
// retry policy and returns the successful response, or the taxonomy error
// for the last classified outcome.
func (c *Client) governedFetch(ctx context.Context, req governor.Request) (resp *governor.Response, err error) {
	err = try.Do(func(attempt int) (bool, error) {
		attemptRemained := attempt < c.retry.MaxAttempts

		r, err := c.exec.Execute(ctx, req)
		if nil != err {
			switch {
			case errutil.IsContext(ctx):
				return false, ctx.Err()
			case errors.Is(err, context.DeadlineExceeded):
				return false, context.DeadlineExceeded
			case errutil.IsFlaw(err):
				return false, must.BeFlaw(err)
			default:
				panic(errutil.UnknownError(err))
			}
		}

		switch r.Outcome {
		case governor.OutcomeSuccess:
			resp = r
			return false, nil
		case governor.OutcomeRateLimited:
			c.logger.Warn().Int("attempt", attempt).Str("url", req.URL).Msg("Request was rate limited")
			return attemptRemained && c.retry.retryable(r.Outcome), ErrRateLimited
		case governor.OutcomeTransient:
			c.logger.Warn().Int("attempt", attempt).Int("status_code", r.StatusCode).Str("url", req.URL).Msg("Request failed transiently")
			return attemptRemained && c.retry.retryable(r.Outcome), ErrTransient
		case governor.OutcomePermanent:
			flawP := errutil.ResponseFlawPayload(r.StatusCode, r.Header)
			flawP["url"] = req.URL
			flawP["query"] = req.Query.Encode()
			return false, flaw.From(fmt.Errorf("request failed permanently with status %d", r.StatusCode)).Append(flawP)
		default:
			panic(fmt.Sprintf("unknown governed outcome: %d", r.Outcome))
		}
	})
	if nil != err {
		return nil, err
	}
	return resp, nil
}

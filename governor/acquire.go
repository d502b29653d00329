package governor

import (
	"context"
)

// Acquire suspends until the window budgets and any outstanding backoff
// delay clear, then records one request event. It exists for collaborators
// that perform their own network transfer (the browser fetcher): the
// transfer must not fire sooner than a governed request would have. A
// canceled wait abandons without recording.
func (e *Executor) Acquire(ctx context.Context) error {
	e.mux.Lock()
	defer e.mux.Unlock()

	if wait := e.limiter.Admit(); wait > 0 {
		e.logger.Debug().Dur("wait", wait).Msg("Rate limit window full, waiting")
		if err := e.sleep(ctx, wait); nil != err {
			return err
		}
	}

	if pending := e.nextAllowed.Sub(e.clk.Now()); pending > 0 {
		e.logger.Debug().Dur("wait", pending).Msg("Backoff delay outstanding, waiting")
		if err := e.sleep(ctx, pending); nil != err {
			return err
		}
	}

	e.limiter.Record()
	return nil
}

// ReportSuccess feeds a successful collaborator transfer back into the
// backoff tracker.
func (e *Executor) ReportSuccess() {
	e.backoff.OnSuccess()
}

// ReportFailure feeds a failed collaborator transfer back into the backoff
// tracker and pushes out the next-allowed time accordingly.
func (e *Executor) ReportFailure() {
	delay := e.backoff.OnFailure()
	e.mux.Lock()
	e.nextAllowed = e.clk.Now().Add(delay)
	e.mux.Unlock()
}

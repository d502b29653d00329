package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ryanlong1004/lucida-flow/clock"
	"github.com/ryanlong1004/lucida-flow/ratelimit"
)

func newLimiter(perMinute, perHour int, minDelay time.Duration) (*ratelimit.Limiter, *clock.Manual) {
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := ratelimit.Config{PerMinute: perMinute, PerHour: perHour, MinDelay: minDelay}
	return ratelimit.NewLimiter(cfg, clk), clk
}

func TestLimiterFirstCallWaitsZero(t *testing.T) {
	t.Parallel()
	l, _ := newLimiter(30, 500, 2*time.Second)
	assert.Zero(t, l.Admit())
}

func TestLimiterMinDelay(t *testing.T) {
	t.Parallel()
	l, clk := newLimiter(30, 500, 2*time.Second)

	l.Record()
	assert.Exactly(t, 2*time.Second, l.Admit())

	clk.Advance(500 * time.Millisecond)
	assert.Exactly(t, 1500*time.Millisecond, l.Admit())

	clk.Advance(2 * time.Second)
	assert.Zero(t, l.Admit())
}

func TestLimiterPerMinuteBudget(t *testing.T) {
	t.Parallel()
	l, clk := newLimiter(3, 500, 0)

	for range 3 {
		assert.Zero(t, l.Admit())
		l.Record()
		clk.Advance(time.Second)
	}

	// Exactly at budget: the wait branch triggers. Oldest event is 3s old,
	// so it ages out of the minute window in 57s, plus the margin.
	wait := l.Admit()
	assert.Exactly(t, 57*time.Second+time.Second, wait)

	clk.Advance(wait)
	assert.Zero(t, l.Admit())
}

func TestLimiterPerHourBudget(t *testing.T) {
	t.Parallel()
	l, clk := newLimiter(1000, 5, 0)

	for range 5 {
		l.Record()
		clk.Advance(time.Minute)
	}

	// 5 events within the hour and a generous minute budget: the hourly
	// window imposes the wait. Oldest event is 5m old.
	wait := l.Admit()
	assert.Exactly(t, 55*time.Minute+time.Second, wait)
}

func TestLimiterWindowNeverExceedsBudget(t *testing.T) {
	t.Parallel()
	l, clk := newLimiter(4, 100, 0)

	recorded := make([]time.Time, 0, 64)
	for range 50 {
		if wait := l.Admit(); wait > 0 {
			clk.Advance(wait)
		}
		l.Record()
		recorded = append(recorded, clk.Now())
		clk.Advance(3 * time.Second)
	}

	for _, at := range recorded {
		inWindow := 0
		for _, other := range recorded {
			if !other.After(at) && other.After(at.Add(-time.Minute)) {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, 4)
	}
}

func TestLimiterEvictsAgedEvents(t *testing.T) {
	t.Parallel()
	l, clk := newLimiter(30, 500, 0)

	for range 10 {
		l.Record()
		clk.Advance(time.Second)
	}
	assert.Exactly(t, 10, l.Stats().TotalTracked)

	clk.Advance(2 * time.Hour)
	assert.Zero(t, l.Stats().TotalTracked)
}

func TestLimiterBoundedHistory(t *testing.T) {
	t.Parallel()
	l, clk := newLimiter(0, 5, 0)

	for range 20 {
		l.Record()
		clk.Advance(time.Millisecond)
	}
	assert.LessOrEqual(t, l.Stats().TotalTracked, 5)
}

func TestLimiterStats(t *testing.T) {
	t.Parallel()
	l, clk := newLimiter(30, 500, 0)

	l.Record()
	clk.Advance(30 * time.Minute)
	l.Record()
	clk.Advance(30 * time.Second)

	stats := l.Stats()
	assert.Exactly(t, 1, stats.RequestsLastMinute)
	assert.Exactly(t, 2, stats.RequestsLastHour)
	assert.Exactly(t, 2, stats.TotalTracked)
}

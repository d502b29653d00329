// Package ratelimit implements the client-side request budgets enforced
// against the remote service: a sliding-window limiter over per-minute and
// per-hour budgets with a minimum inter-request delay, and an exponential
// backoff tracker fed by request outcomes.
package ratelimit

import (
	"sync"
	"time"

	"github.com/ryanlong1004/lucida-flow/clock"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour

	// windowMargin is added to computed waits so the oldest qualifying
	// event has aged out of the window before the next attempt.
	windowMargin = time.Second
)

type Config struct {
	PerMinute int
	PerHour   int
	MinDelay  time.Duration
}

// Limiter tracks timestamps of recent requests and computes how long a
// caller must wait before the next request complies with the configured
// budgets. It never blocks; sleeping is the caller's job.
type Limiter struct {
	cfg       Config
	clk       clock.Clock
	mux       sync.Mutex
	events    []time.Time
	lastEvent time.Time
}

func NewLimiter(cfg Config, clk clock.Clock) *Limiter {
	capacity := cfg.PerHour
	if capacity <= 0 {
		capacity = 1
	}
	return &Limiter{
		cfg:    cfg,
		clk:    clk,
		events: make([]time.Time, 0, capacity),
	}
}

// Admit reports the wait required before the next request is permissible.
// Events older than the hour window are evicted as a side effect to bound
// memory. The caller must sleep for the returned duration and then call
// Record before issuing the request.
func (l *Limiter) Admit() time.Duration {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.clk.Now()
	l.purge(now)

	if wait, limited := l.windowWait(now, minuteWindow, l.cfg.PerMinute); limited {
		return wait
	}

	if wait, limited := l.windowWait(now, hourWindow, l.cfg.PerHour); limited {
		return wait
	}

	if l.lastEvent.IsZero() {
		return 0
	}

	if wait := l.cfg.MinDelay - now.Sub(l.lastEvent); wait > 0 {
		return wait
	}
	return 0
}

// Record marks one outbound request at the current clock reading.
func (l *Limiter) Record() {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.clk.Now()
	l.events = append(l.events, now)
	l.lastEvent = now

	// Mirror a bounded deque: keep at most the hourly budget of events.
	if max := l.cfg.PerHour; max > 0 && len(l.events) > max {
		l.events = append(l.events[:0], l.events[len(l.events)-max:]...)
	}
}

type Stats struct {
	RequestsLastMinute int `json:"requests_last_minute"`
	RequestsLastHour   int `json:"requests_last_hour"`
	TotalTracked       int `json:"total_requests"`
}

func (l *Limiter) Stats() Stats {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.clk.Now()
	l.purge(now)

	return Stats{
		RequestsLastMinute: l.countSince(now.Add(-minuteWindow)),
		RequestsLastHour:   l.countSince(now.Add(-hourWindow)),
		TotalTracked:       len(l.events),
	}
}

func (l *Limiter) Config() Config {
	return l.cfg
}

// windowWait computes the wait imposed by one window. Exactly-at-budget
// counts trigger the wait branch.
func (l *Limiter) windowWait(now time.Time, window time.Duration, budget int) (time.Duration, bool) {
	if budget <= 0 {
		return 0, false
	}

	cutoff := now.Add(-window)
	count := l.countSince(cutoff)
	if count < budget {
		return 0, false
	}

	oldest := l.oldestSince(cutoff)
	wait := window - now.Sub(oldest) + windowMargin
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

// purge evicts events outside the longest tracked window. Events are sorted
// by occurrence, so eviction strips a prefix.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-hourWindow)
	i := 0
	for i < len(l.events) && !l.events[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.events = append(l.events[:0], l.events[i:]...)
	}
}

func (l *Limiter) countSince(cutoff time.Time) int {
	n := 0
	for _, t := range l.events {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

func (l *Limiter) oldestSince(cutoff time.Time) time.Time {
	for _, t := range l.events {
		if t.After(cutoff) {
			return t
		}
	}
	return cutoff
}

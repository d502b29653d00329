package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ryanlong1004/lucida-flow/ratelimit"
)

func TestBackoffDoublesPerFailure(t *testing.T) {
	t.Parallel()
	b := ratelimit.NewBackoff()

	expected := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
	}
	for _, want := range expected {
		assert.Exactly(t, want, b.OnFailure())
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	t.Parallel()
	b := ratelimit.NewBackoff()

	var last time.Duration
	for range 10 {
		last = b.OnFailure()
	}
	assert.Exactly(t, 5*time.Minute, last)
	assert.Exactly(t, 10, b.ConsecutiveErrors())
}

func TestBackoffResetOnSuccess(t *testing.T) {
	t.Parallel()
	b := ratelimit.NewBackoff()

	for range 7 {
		b.OnFailure()
	}
	b.OnSuccess()
	assert.Zero(t, b.ConsecutiveErrors())
	assert.Exactly(t, 2*time.Second, b.OnFailure())
}

func TestBackoffRateLimited(t *testing.T) {
	t.Parallel()

	t.Run("HonorsRetryDirective", func(t *testing.T) {
		t.Parallel()
		b := ratelimit.NewBackoff()
		delay := b.OnRateLimited(5*time.Second, true)
		assert.Exactly(t, 5*time.Second, delay)
		assert.Exactly(t, 1, b.ConsecutiveErrors())
	})

	t.Run("FallsBackWithoutDirective", func(t *testing.T) {
		t.Parallel()
		b := ratelimit.NewBackoff()
		delay := b.OnRateLimited(0, false)
		assert.Exactly(t, time.Minute, delay)
		assert.Exactly(t, 1, b.ConsecutiveErrors())
	})

	t.Run("CountsTowardEscalation", func(t *testing.T) {
		t.Parallel()
		b := ratelimit.NewBackoff()
		b.OnRateLimited(5*time.Second, true)
		assert.Exactly(t, 4*time.Second, b.OnFailure())
	})
}

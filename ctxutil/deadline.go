package ctxutil

import (
	"context"
	"time"
)

// WithDelayedTimeout derives a context that outlives its parent by delay,
// giving in-flight work a grace period to finish after shutdown begins.
func WithDelayedTimeout(parent context.Context, delay time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	go func() {
		<-parent.Done()
		time.AfterFunc(delay, cancel)
	}()
	return ctx, cancel
}

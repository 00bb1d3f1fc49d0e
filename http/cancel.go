package http

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// cancellation merges any number of cancellation sources and an optional
// timeout into one internal context. The internal context is the only signal
// handed to the transport.
type cancellation struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	timer    *time.Timer
	detach   []func() bool
	timedOut atomic.Bool

	settleOnce sync.Once
}

// composeCancellation builds the internal context from parent's values. The
// first source to be cancelled forwards its cause; an elapsed timeout cancels
// with ErrTimeout after flagging the call as timed out. Parent itself is not
// a source unless it is passed as one.
func composeCancellation(parent context.Context, timeout time.Duration, sources ...context.Context) *cancellation {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(context.WithoutCancel(parent))
	c := &cancellation{ctx: ctx, cancel: cancel}

	for _, src := range sources {
		src := src
		if src == nil || src.Done() == nil {
			continue
		}
		if src.Err() != nil {
			cancel(context.Cause(src))
			continue
		}
		c.detach = append(c.detach, context.AfterFunc(src, func() {
			cancel(context.Cause(src))
		}))
	}

	if timeout > 0 {
		c.timer = time.AfterFunc(timeout, func() {
			c.timedOut.Store(true)
			cancel(ErrTimeout)
		})
	}
	return c
}

// Signal returns the internal context.
func (c *cancellation) Signal() context.Context {
	return c.ctx
}

// TimedOut reports whether the timeout fired.
func (c *cancellation) TimedOut() bool {
	return c.timedOut.Load()
}

// Settle stops the timer and detaches every source listener. Only the first
// call has an effect. The internal context is left as it is so the final
// state stays observable.
func (c *cancellation) Settle() {
	c.settleOnce.Do(func() {
		if c.timer != nil {
			c.timer.Stop()
		}
		for _, stop := range c.detach {
			stop()
		}
	})
}

// release cancels the internal context. It runs after Settle once the
// response is fully normalized, so nothing can observe a late cancellation.
func (c *cancellation) release() {
	c.Settle()
	c.cancel(context.Canceled)
}

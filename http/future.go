package http

import (
	"context"
	"sync"
)

// Settler settles the outcome of a call. Only the first Resolve or Reject
// takes effect.
type Settler interface {
	Resolve(value any)
	Reject(err error)
}

// Future is the eventual outcome of a call.
type Future struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve settles the future with value.
func (f *Future) Resolve(value any) {
	f.once.Do(func() {
		f.value = value
		close(f.done)
	})
}

// Reject settles the future with err. A nil err is replaced by ErrRejected.
func (f *Future) Reject(err error) {
	if err == nil {
		err = ErrRejected
	}
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether Resolve or Reject has run.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome. It must only be called after Done is closed.
func (f *Future) Result() (any, error) {
	return f.value, f.err
}

// Wait blocks until the future settles or ctx is done. Giving up on ctx does
// not cancel the call.
func (f *Future) Wait(ctx context.Context) (any, error) {
	if f.Settled() {
		return f.value, f.err
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

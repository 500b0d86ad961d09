package ioc

import (
	"context"
	"sync"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Future is the readiness of a started [Module].
//
// It resolves once every setup action has completed, or is rejected with the error that
// aborted the startup.
type Future struct {
	once sync.Once
	err  error
	done chan struct{}
}

func newFuture() *Future {
	return &Future{
		done: make(chan struct{}),
	}
}

func (f *Future) settle(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the rejection error. It is nil while the future is pending or when it
// resolved successfully.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Wait blocks until the future settles or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "ioc.Future.Wait")
	}
}

var _ Awaitable = (*Future)(nil)

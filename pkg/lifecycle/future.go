package lifecycle

import (
	"context"
	"sync/atomic"
)

// FutureState is the settlement state of a Future.
type FutureState int32

const (
	Pending FutureState = iota
	Fulfilled
	Cancelled
)

func (s FutureState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Future is a one-shot completion slot settled at most once, either by a
// Disposer's release (Fulfilled) or by cancellation (Cancelled). Whichever
// happens second is a silent no-op. Settlement never blocks.
type Future[T any] struct {
	claimed atomic.Bool
	state   atomic.Int32
	done    chan struct{}
	value   T
	err     error
}

// Done returns a channel closed when the Future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// State returns a snapshot of the settlement state.
func (f *Future[T]) State() FutureState {
	return FutureState(f.state.Load())
}

// Result blocks until the Future settles, then returns the release value
// or ErrCancelled.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// fulfillWith claims the slot and only then computes the value, so no work
// is wasted when cancellation has already won.
func (f *Future[T]) fulfillWith(produce func() T) bool {
	if !f.claimed.CompareAndSwap(false, true) {
		return false
	}
	f.value = produce()
	f.state.Store(int32(Fulfilled))
	close(f.done)
	return true
}

func (f *Future[T]) cancel() bool {
	if !f.claimed.CompareAndSwap(false, true) {
		return false
	}
	f.err = ErrCancelled
	f.state.Store(int32(Cancelled))
	close(f.done)
	return true
}

// Bridge constructs a Disposer whose release fulfills the returned Future
// with produce(). produce runs lazily, strictly after the release has won
// the claim against cancellation.
//
// If ctx is cancellable, the Future settles Cancelled when ctx fires
// before release; a ctx already done at construction settles the Future
// immediately. First of release and cancellation wins; the loser's attempt
// is a no-op, never an error.
func Bridge[T any](ctx context.Context, produce func() T, opts ...DisposerOption) (*Disposer, *Future[T], error) {
	if produce == nil {
		return nil, nil, &InvalidArgumentError{Arg: "produce", Message: "result producer is required"}
	}
	f := &Future[T]{done: make(chan struct{})}
	d, err := NewDisposer(func() { f.fulfillWith(produce) }, opts...)
	if err != nil {
		return nil, nil, err
	}
	if ctx != nil && ctx.Done() != nil {
		select {
		case <-ctx.Done():
			f.cancel()
			return d, f, nil
		default:
		}
		go func() {
			select {
			case <-ctx.Done():
				f.cancel()
			case <-f.done:
			}
		}()
	}
	return d, f, nil
}

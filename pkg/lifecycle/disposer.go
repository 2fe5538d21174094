package lifecycle

import (
	"runtime"
	"sync"
)

// Disposer guarantees a cleanup function executes at most once, whether
// release is triggered explicitly, concurrently from several goroutines,
// or by the garbage collector when constructed with WithGCBackstop.
//
// The zero value is not usable; construct with NewDisposer.
type Disposer struct {
	core  *disposerCore
	gc    runtime.Cleanup
	gcSet bool
}

// disposerCore holds the mutable guts. It is split from Disposer so the
// GC backstop can reference it without keeping the handle itself alive.
type disposerCore struct {
	mu             sync.Mutex
	cleanup        func()
	observers      []func()
	done           chan struct{}
	notifyBackstop bool
}

// DisposerOption configures a Disposer at construction.
type DisposerOption func(*disposerOptions)

type disposerOptions struct {
	gcBackstop     bool
	notifyBackstop bool
}

// WithGCBackstop arranges for the cleanup to run when the Disposer becomes
// unreachable without an explicit Release. Backstop-triggered release runs
// the cleanup but does not notify observers, mirroring the explicit versus
// implicit release distinction.
func WithGCBackstop() DisposerOption {
	return func(o *disposerOptions) { o.gcBackstop = true }
}

// WithBackstopNotify makes backstop-triggered releases notify observers as
// well. Implies WithGCBackstop.
func WithBackstopNotify() DisposerOption {
	return func(o *disposerOptions) {
		o.gcBackstop = true
		o.notifyBackstop = true
	}
}

// NewDisposer creates a Disposer owning cleanup. A nil cleanup is an
// InvalidArgumentError.
func NewDisposer(cleanup func(), opts ...DisposerOption) (*Disposer, error) {
	if cleanup == nil {
		return nil, &InvalidArgumentError{Arg: "cleanup", Message: "cleanup function is required"}
	}
	var o disposerOptions
	for _, opt := range opts {
		opt(&o)
	}
	d := &Disposer{
		core: &disposerCore{
			cleanup:        cleanup,
			done:           make(chan struct{}),
			notifyBackstop: o.notifyBackstop,
		},
	}
	if o.gcBackstop {
		d.gc = runtime.AddCleanup(d, func(c *disposerCore) { c.release(false) }, d.core)
		d.gcSet = true
	}
	return d, nil
}

// NewDisposerWithState creates a Disposer whose cleanup receives a
// caller-supplied state value. The state is owned exclusively by the
// Disposer and dropped together with the cleanup when release wins.
func NewDisposerWithState[S any](cleanup func(S), state S, opts ...DisposerOption) (*Disposer, error) {
	if cleanup == nil {
		return nil, &InvalidArgumentError{Arg: "cleanup", Message: "cleanup function is required"}
	}
	return NewDisposer(func() { cleanup(state) }, opts...)
}

// Release runs the cleanup if no other call has claimed it yet. It returns
// whether this call performed the cleanup; concurrent losers return false
// immediately. Safe to call from any goroutine, including re-entrantly
// from within a release observer.
func (d *Disposer) Release() bool {
	won := d.core.release(true)
	if won && d.gcSet {
		d.gc.Stop()
	}
	return won
}

// Released reports whether the cleanup has been claimed. Stable once true.
func (d *Disposer) Released() bool {
	d.core.mu.Lock()
	defer d.core.mu.Unlock()
	return d.core.cleanup == nil
}

// Done returns a channel closed exactly once when the release completes,
// after the cleanup has run. It closes on both explicit and
// backstop-triggered releases.
func (d *Disposer) Done() <-chan struct{} {
	return d.core.done
}

// OnReleased registers fn to run once, synchronously, when the Disposer is
// released, in registration order. If the Disposer is already released,
// fn runs immediately; a registration is never silently dropped.
func (d *Disposer) OnReleased(fn func()) {
	if fn == nil {
		return
	}
	c := d.core
	c.mu.Lock()
	if c.cleanup == nil {
		c.mu.Unlock()
		fn()
		return
	}
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// release claims the cleanup under the mutex and runs it outside, so a
// re-entrant Release from an observer sees the claim and returns false
// instead of deadlocking.
func (c *disposerCore) release(explicit bool) bool {
	c.mu.Lock()
	cleanup := c.cleanup
	if cleanup == nil {
		c.mu.Unlock()
		return false
	}
	c.cleanup = nil
	var observers []func()
	if explicit || c.notifyBackstop {
		observers = c.observers
	}
	c.observers = nil
	c.mu.Unlock()

	cleanup()
	close(c.done)
	for _, fn := range observers {
		fn()
	}
	return true
}

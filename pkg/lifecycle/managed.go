package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync/atomic"
	"time"
)

// DefaultWriteTimeout bounds release's write-scope acquisition unless
// overridden with WithWriteTimeout.
const DefaultWriteTimeout = 30 * time.Second

// FallbackPolicy selects what Release does when the write scope cannot be
// acquired within the timeout.
type FallbackPolicy int

const (
	// SkipOnTimeout leaves the resource untouched and usable; the timeout
	// is reported to the caller as a wrapped ErrLockTimeout.
	SkipOnTimeout FallbackPolicy = iota

	// ForceOnTimeout tears the resource down without holding the write
	// scope. This forfeits isolation against in-flight readers, which may
	// observe the resource mid-teardown. Opt in only when a stuck reader
	// must not be able to pin the resource forever.
	ForceOnTimeout
)

func (p FallbackPolicy) String() string {
	switch p {
	case SkipOnTimeout:
		return "skip-on-timeout"
	case ForceOnTimeout:
		return "force-on-timeout"
	default:
		return fmt.Sprintf("fallback-policy(%d)", int(p))
	}
}

// ManagedOption configures a Managed at construction.
type ManagedOption func(*managedOptions)

type managedOptions struct {
	timeout      time.Duration
	policy       FallbackPolicy
	noGCBackstop bool
}

// WithWriteTimeout bounds the write-scope acquisition during Release.
func WithWriteTimeout(d time.Duration) ManagedOption {
	return func(o *managedOptions) { o.timeout = d }
}

// WithFallback selects the policy applied when the write scope is not
// acquired within the timeout.
func WithFallback(p FallbackPolicy) ManagedOption {
	return func(o *managedOptions) { o.policy = p }
}

// WithoutGCBackstop disables the default release-on-collection backstop.
// The caller then fully owns calling Release.
func WithoutGCBackstop() ManagedOption {
	return func(o *managedOptions) { o.noGCBackstop = true }
}

// Managed guards a resource R behind a reader/writer gate. Readers borrow
// the resource through scoped handles from Access; Release takes the write
// scope, runs the resource's own Close if it implements Disposable, and
// permanently clears the resource. After release every Access fails with
// ErrAlreadyReleased; a stale reference is never observable.
type Managed[R any] struct {
	core  *managedCore[R]
	gc    runtime.Cleanup
	gcSet bool
}

type managedCore[R any] struct {
	gate     *Gate
	timeout  time.Duration
	policy   FallbackPolicy
	released atomic.Bool
	resource R
}

// NewManaged creates a Managed guard owning resource. Ownership transfers
// to the guard; the caller must not retain its own reference. An absent
// (nil) resource is an InvalidArgumentError.
//
// The release-on-collection backstop is on by default: if the guard is
// dropped without Release, the resource is still torn down when the guard
// is collected.
func NewManaged[R any](resource R, opts ...ManagedOption) (*Managed[R], error) {
	if isAbsent(resource) {
		return nil, &InvalidArgumentError{Arg: "resource", Message: "resource is required"}
	}
	o := managedOptions{timeout: DefaultWriteTimeout, policy: SkipOnTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Managed[R]{
		core: &managedCore[R]{
			gate:     NewGate(),
			timeout:  o.timeout,
			policy:   o.policy,
			resource: resource,
		},
	}
	if !o.noGCBackstop {
		m.gc = runtime.AddCleanup(m, func(c *managedCore[R]) {
			c.release(context.Background())
		}, m.core)
		m.gcSet = true
	}
	return m, nil
}

// Access acquires the read scope and returns a handle exposing the
// resource for the handle's lifetime. The released check happens under
// the read scope, so a handle never refers to a half-torn-down resource.
// Returns ErrAlreadyReleased after release, or the ctx error if the read
// scope could not be acquired.
func (m *Managed[R]) Access(ctx context.Context) (*ReadHandle[R], error) {
	s, err := m.core.gate.RLock(ctx)
	if err != nil {
		return nil, err
	}
	if m.core.released.Load() {
		s.Release()
		return nil, ErrAlreadyReleased
	}
	return &ReadHandle[R]{resource: m.core.resource, scope: s}, nil
}

// Release tears the resource down under the write scope, bounded by the
// configured timeout. The bool reports whether THIS call performed the
// teardown. Timeout is an expected outcome, never a panic:
//
//   - SkipOnTimeout: returns (false, err) with errors.Is(err,
//     ErrLockTimeout); the resource stays usable.
//   - ForceOnTimeout: tears down anyway and returns (true, err) with the
//     timeout wrapped, so callers can log that isolation was forfeited.
//
// A Release after the resource is already gone returns (false, nil).
func (m *Managed[R]) Release(ctx context.Context) (bool, error) {
	released, err := m.core.release(ctx)
	if released && m.gcSet {
		m.gc.Stop()
	}
	return released, err
}

// Released reports whether the resource has been torn down. Non-blocking.
func (m *Managed[R]) Released() bool {
	return m.core.released.Load()
}

func (c *managedCore[R]) release(ctx context.Context) (bool, error) {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	s, err := c.gate.Lock(tctx)
	if err != nil {
		if ctx.Err() != nil {
			// Caller cancellation, not a scope timeout.
			return false, ctx.Err()
		}
		timeoutErr := fmt.Errorf("write scope not acquired within %v: %w", c.timeout, ErrLockTimeout)
		if c.policy != ForceOnTimeout {
			return false, timeoutErr
		}
		released, closeErr := c.teardown()
		if !released {
			return false, nil
		}
		return true, errors.Join(timeoutErr, closeErr)
	}
	defer s.Release()

	released, closeErr := c.teardown()
	return released, closeErr
}

// teardown claims the terminal state, runs the resource's own cleanup if
// it has one, and clears the reference. Exactly one caller wins.
func (c *managedCore[R]) teardown() (bool, error) {
	if !c.released.CompareAndSwap(false, true) {
		return false, nil
	}
	var err error
	if d, ok := any(c.resource).(Disposable); ok {
		err = d.Close()
	}
	var zero R
	c.resource = zero
	return true, err
}

// ReadHandle is a scoped borrow of a managed resource. Close releases the
// read scope and is idempotent; defer it on every path.
type ReadHandle[R any] struct {
	resource R
	scope    Scope
}

// Resource returns the borrowed resource. Valid only until Close.
func (h *ReadHandle[R]) Resource() R {
	return h.resource
}

// Close releases the read scope.
func (h *ReadHandle[R]) Close() {
	h.scope.Release()
}

// isAbsent reports whether v is a nil pointer, interface, map, slice,
// func, or channel. Non-nilable kinds are always present.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

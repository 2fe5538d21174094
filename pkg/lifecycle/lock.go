package lifecycle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds the number of simultaneous read scopes on a Gate.
const maxReaders = 1 << 30

// A Scope is a held lock scope. Release is idempotent and must run on
// every exit path; callers typically defer it immediately after acquiring.
type Scope interface {
	Release()
}

// RWScope is a non-reentrant reader/writer lock with cancellable and
// timeout-bounded acquisition. Multiple readers may hold the read scope
// simultaneously; the write scope is exclusive against all readers and
// other writers.
//
// Non-reentrancy is a precondition, not a detected error: a goroutine
// already holding a scope must not acquire another scope on the same
// primitive, or it deadlocks.
type RWScope interface {
	// RLock acquires the read scope, blocking until it is available or
	// ctx is done.
	RLock(ctx context.Context) (Scope, error)

	// Lock acquires the exclusive write scope, blocking until every read
	// scope drains or ctx is done.
	Lock(ctx context.Context) (Scope, error)

	// TryLock attempts write acquisition bounded by timeout. A timed-out
	// attempt leaves no partial lock-internal state behind.
	TryLock(timeout time.Duration) (Scope, bool)
}

// Gate is the default RWScope, backed by a weighted semaphore: a reader
// holds one unit and the writer holds all of them. Waiters are served in
// FIFO order, so a pending writer blocks readers that arrive after it.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate returns an unheld Gate.
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(maxReaders)}
}

func (g *Gate) RLock(ctx context.Context) (Scope, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return newScope(func() { g.sem.Release(1) }), nil
}

func (g *Gate) Lock(ctx context.Context) (Scope, error) {
	if err := g.sem.Acquire(ctx, maxReaders); err != nil {
		return nil, err
	}
	return newScope(func() { g.sem.Release(maxReaders) }), nil
}

func (g *Gate) TryLock(timeout time.Duration) (Scope, bool) {
	if timeout <= 0 {
		if !g.sem.TryAcquire(maxReaders) {
			return nil, false
		}
		return newScope(func() { g.sem.Release(maxReaders) }), true
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s, err := g.Lock(ctx)
	if err != nil {
		return nil, false
	}
	return s, true
}

type scope struct {
	once    sync.Once
	release func()
}

func newScope(release func()) *scope {
	return &scope{release: release}
}

func (s *scope) Release() {
	s.once.Do(s.release)
}

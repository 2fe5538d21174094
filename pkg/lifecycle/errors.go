package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyReleased is returned when an operation is attempted on a
	// resource that has reached its terminal released state. Callers are
	// expected to treat it as "resource gone" and branch accordingly.
	ErrAlreadyReleased = errors.New("resource already released")

	// ErrLockTimeout is returned (wrapped) when the write scope could not
	// be acquired within the configured timeout. It is an expected outcome
	// governed by the fallback policy, not a fault.
	ErrLockTimeout = errors.New("write scope acquisition timed out")

	// ErrCancelled is the terminal error of a Future settled by
	// cancellation before release occurred.
	ErrCancelled = errors.New("cancelled before release")
)

// InvalidArgumentError reports a missing or nil required constructor
// argument. It is always fatal to the constructing call.
type InvalidArgumentError struct {
	Arg     string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Message)
	}
	return fmt.Sprintf("invalid argument %q", e.Arg)
}

// Disposable is implemented by resources that carry their own cleanup.
// Managed calls Close while holding the write scope during release.
type Disposable interface {
	Close() error
}

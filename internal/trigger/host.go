// Package trigger runs batches of change records against a long-lived
// secret store client. The client is shared across invocations behind a
// lifecycle guard, so in-flight batches always see a live client and
// shutdown waits for them (bounded by the configured timeout) before the
// client is torn down.
package trigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/systmms/relinq/internal/logging"
	"github.com/systmms/relinq/internal/metrics"
	"github.com/systmms/relinq/pkg/lifecycle"
	"github.com/systmms/relinq/pkg/secretstore"
)

// Record is one changed entry delivered by the event source.
type Record struct {
	VaultURI string
	Name     string
	Kind     RecordKind
}

// RecordKind distinguishes secret from certificate records.
type RecordKind int

const (
	KindSecret RecordKind = iota
	KindCertificate
)

func (k RecordKind) String() string {
	switch k {
	case KindSecret:
		return "secret"
	case KindCertificate:
		return "certificate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Handler processes one batch using the borrowed store client. The client
// is only valid for the duration of the call.
type Handler func(ctx context.Context, store secretstore.SecretStore, batch []Record) error

// Host dispatches batches to a handler while guarding the shared store
// client. Invoke may be called from any number of goroutines; Close
// drains them before releasing the client.
type Host struct {
	guard   *lifecycle.Managed[secretstore.SecretStore]
	handler Handler
	logger  *logging.Logger
	metrics *metrics.Lifecycle
}

// HostOption configures a Host.
type HostOption func(*hostOptions)

type hostOptions struct {
	logger  *logging.Logger
	metrics *metrics.Lifecycle
	guard   []lifecycle.ManagedOption
}

// WithHostLogger sets the host's logger.
func WithHostLogger(logger *logging.Logger) HostOption {
	return func(o *hostOptions) { o.logger = logger.Named("trigger") }
}

// WithHostMetrics attaches lifecycle collectors.
func WithHostMetrics(m *metrics.Lifecycle) HostOption {
	return func(o *hostOptions) { o.metrics = m }
}

// WithGuardOptions forwards options to the underlying resource guard,
// such as the release timeout and fallback policy.
func WithGuardOptions(opts ...lifecycle.ManagedOption) HostOption {
	return func(o *hostOptions) { o.guard = append(o.guard, opts...) }
}

// NewHost creates a Host owning store. Ownership of the client transfers
// to the host; Close tears it down.
func NewHost(store secretstore.SecretStore, handler Handler, opts ...HostOption) (*Host, error) {
	if handler == nil {
		return nil, &lifecycle.InvalidArgumentError{Arg: "handler", Message: "handler is required"}
	}
	o := hostOptions{logger: logging.New(false, false).Named("trigger")}
	for _, opt := range opts {
		opt(&o)
	}
	guard, err := lifecycle.NewManaged(store, o.guard...)
	if err != nil {
		return nil, err
	}
	return &Host{
		guard:   guard,
		handler: handler,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// Invoke runs one batch through the handler with a borrowed store client.
// Empty batches are a no-op. After Close the host rejects batches with
// ErrAlreadyReleased.
func (h *Host) Invoke(ctx context.Context, batch []Record) error {
	if len(batch) == 0 {
		return nil
	}

	handle, err := h.guard.Access(ctx)
	if err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyReleased) {
			return fmt.Errorf("store client is closed: %w", err)
		}
		return err
	}
	defer handle.Close()

	if h.metrics != nil {
		h.metrics.ReadsInFlight.Inc()
		defer h.metrics.ReadsInFlight.Dec()
	}

	h.logger.Debug("Handling batch of %d records", len(batch))
	if err := h.handler(ctx, handle.Resource(), batch); err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.Batches.Inc()
	}
	return nil
}

// Close releases the store client, waiting for in-flight batches up to
// the guard's write timeout. The bool reports whether this call performed
// the teardown; a timeout under the skip policy leaves the host usable.
func (h *Host) Close(ctx context.Context) (bool, error) {
	released, err := h.guard.Release(ctx)
	h.record(released, err)
	return released, err
}

func (h *Host) record(released bool, err error) {
	switch {
	case released && err != nil && errors.Is(err, lifecycle.ErrLockTimeout):
		h.logger.Warn("Store client torn down without write scope: %v", err)
		h.count(metrics.OutcomeTimeoutForced)
	case released:
		h.logger.Debug("Store client released")
		h.count(metrics.OutcomeDisposed)
	case err != nil && errors.Is(err, lifecycle.ErrLockTimeout):
		h.logger.Warn("Release timed out waiting for in-flight batches: %v", err)
		h.count(metrics.OutcomeTimeoutSkipped)
	case err == nil:
		h.count(metrics.OutcomeAlreadyReleased)
	}
}

func (h *Host) count(outcome string) {
	if h.metrics != nil {
		h.metrics.Releases.WithLabelValues(outcome).Inc()
	}
}

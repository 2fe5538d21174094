// Package metrics exposes prometheus collectors for resource lifecycle
// events: release outcomes, lock timeouts, and in-flight read scopes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Release outcome label values.
const (
	OutcomeDisposed        = "disposed"
	OutcomeAlreadyReleased = "already_released"
	OutcomeTimeoutSkipped  = "timeout_skipped"
	OutcomeTimeoutForced   = "timeout_forced"
)

// Lifecycle bundles the collectors for one guarded resource family.
type Lifecycle struct {
	Releases      *prometheus.CounterVec
	ReadsInFlight prometheus.Gauge
	Batches       prometheus.Counter
}

// NewLifecycle registers lifecycle collectors with reg. Pass a dedicated
// registry in tests to avoid duplicate registration.
func NewLifecycle(reg prometheus.Registerer) *Lifecycle {
	factory := promauto.With(reg)
	return &Lifecycle{
		Releases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relinq",
			Name:      "releases_total",
			Help:      "Release attempts by outcome.",
		}, []string{"outcome"}),
		ReadsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "relinq",
			Name:      "reads_in_flight",
			Help:      "Read scopes currently held on the guarded resource.",
		}),
		Batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "relinq",
			Name:      "trigger_batches_total",
			Help:      "Batches handled by the trigger host.",
		}),
	}
}

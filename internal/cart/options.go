package cart

import (
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ClearPolicy controls when ClearCart drops local state.
type ClearPolicy int

const (
	// ClearEager empties local state before the server call and keeps it empty even if the call fails.
	ClearEager ClearPolicy = iota
	// ClearStaged empties local state only once the server confirms the clear.
	ClearStaged
)

func (p ClearPolicy) String() string {
	switch p {
	case ClearEager:
		return "eager"
	case ClearStaged:
		return "staged"
	}
	return "unknown"
}

// ParseClearPolicy maps a config value onto a policy, defaulting to ClearEager.
func ParseClearPolicy(value string) ClearPolicy {
	if value == "staged" {
		return ClearStaged
	}
	return ClearEager
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithLogger(logg *logger.Logger) Option {
	return func(r *Reconciler) {
		if logg != nil {
			r.logg = logg
		}
	}
}

func WithMetrics(m *metrics.OperationMetrics) Option {
	return func(r *Reconciler) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithClearPolicy(policy ClearPolicy) Option {
	return func(r *Reconciler) {
		r.clearPolicy = policy
	}
}

// WithSerializedMutations runs operations one at a time instead of letting the last response win.
func WithSerializedMutations() Option {
	return func(r *Reconciler) {
		r.serial = semaphore.NewWeighted(1)
	}
}

// WithIDGenerator overrides the anonymous id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Reconciler) {
		if fn != nil {
			r.newID = fn
		}
	}
}

func defaultIDGenerator() string {
	return uuid.NewString()
}

package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthPinger is implemented by components that can probe their own
// backing resource. A nil return means healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// HealthChecker is the component-level view consumed by the aggregate
// checker and the health handlers.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds component checkers into one service-wide
// flag. The service is up only while every dependency is up.
type ServiceHealthChecker struct {
	up   atomic.Bool
	deps []HealthChecker
	log  zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy returns the cached service flag.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.up.Load() }

// Start re-evaluates dependency health on the given interval until ctx
// is done, logging every transition with the first failing dependency.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.evaluate()
		}
	}
}

func (h *ServiceHealthChecker) evaluate() {
	down := ""
	for _, dep := range h.deps {
		if !dep.IsHealthy() {
			down = dep.Name()
			break
		}
	}

	next := down == ""
	if h.up.Swap(next) == next {
		return
	}
	if next {
		h.log.Info().Msg("service health: UP")
	} else {
		h.log.Error().Str("dependency", down).Msg("service health: DOWN")
	}
}

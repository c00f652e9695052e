package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubChecker struct {
	name    string
	healthy atomic.Int32
}

func (s *stubChecker) Name() string                               { return s.name }
func (s *stubChecker) IsHealthy() bool                            { return s.healthy.Load() == 1 }
func (s *stubChecker) Start(ctx context.Context, _ time.Duration) {}

func TestServiceHealthCheckerAggregates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := &stubChecker{name: "store"}
	db.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), db)
	go svc.Start(ctx, 10*time.Millisecond)

	waitFor(t, func() bool { return svc.IsHealthy() })

	db.healthy.Store(0)
	waitFor(t, func() bool { return !svc.IsHealthy() })

	db.healthy.Store(1)
	waitFor(t, func() bool { return svc.IsHealthy() })
}

func TestServiceHealthCheckerStartsDown(t *testing.T) {
	svc := NewServiceHealthChecker(zerolog.Nop(), &stubChecker{name: "store"})
	if svc.IsHealthy() {
		t.Fatal("service should be unhealthy before the first evaluation")
	}
}

func waitFor(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

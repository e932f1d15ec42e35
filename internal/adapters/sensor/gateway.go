package sensor

import (
	"context"
	"log"
	"time"

	"github.com/strideapp/stride-engine/internal/core/domain"
)

// Provider is the platform step counter the gateway wraps. Implementations
// live with the host application (HealthKit, Health Connect, a test stub).
type Provider interface {
	IsAvailable(ctx context.Context) (bool, error)
	StepCount(ctx context.Context, from, to time.Time) (int, error)
}

var _ domain.SensorGateway = (*Gateway)(nil)

// Gateway is a single point-in-time probe over a Provider: no caching, no
// retries. Failures are reported as absent; interpreting that is the
// reconciliation service's job.
type Gateway struct {
	provider Provider
}

func NewGateway(provider Provider) *Gateway {
	return &Gateway{provider: provider}
}

func (g *Gateway) Available(ctx context.Context) bool {
	ok, err := g.provider.IsAvailable(ctx)
	if err != nil {
		log.Printf("[SENSOR] Availability probe failed: %v", err)
		return false
	}
	return ok
}

func (g *Gateway) TodaySteps(ctx context.Context, now time.Time) (int, bool) {
	steps, err := g.provider.StepCount(ctx, domain.StartOfDay(now), now)
	if err != nil {
		log.Printf("[SENSOR] Step query failed: %v", err)
		return 0, false
	}
	if steps < 0 {
		log.Printf("[SENSOR] Provider returned negative count %d, treating as absent", steps)
		return 0, false
	}
	return steps, true
}

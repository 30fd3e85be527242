package engine

import (
	"context"

	"github.com/danieljhkim/solodeploy/internal/health"
)

// verifyHealth runs the post-launch probe after the configured startup
// delay. The returned error is non-nil only for context cancellation; an
// unhealthy endpoint is a report, not an error.
func (e *Engine) verifyHealth(ctx context.Context) (*health.Report, error) {
	e.clock.Sleep(e.cfg.HealthDelay())
	return e.prober.Probe(ctx, e.cfg.HealthURL())
}

// Health probes the application endpoint on demand, without the post-launch
// startup delay.
func (e *Engine) Health(ctx context.Context) (*health.Report, error) {
	return e.prober.Probe(ctx, e.cfg.HealthURL())
}

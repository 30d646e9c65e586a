package notify

import (
	"context"
	"log/slog"

	"moniftar/pkg/platform/circuit"
)

// GuardedGateway stops calling a failing provider until the breaker's
// cooldown lets a probe through.
type GuardedGateway struct {
	next    Gateway
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

func NewGuardedGateway(next Gateway, breaker *circuit.Breaker, logger *slog.Logger, metrics *Metrics) *GuardedGateway {
	return &GuardedGateway{next: next, breaker: breaker, logger: logger, metrics: metrics}
}

func (g *GuardedGateway) Send(ctx context.Context, msg Message) (string, error) {
	if !g.breaker.Allow() {
		return "", ErrUnavailable
	}
	deliveryID, err := g.next.Send(ctx, msg)
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.metrics.setCircuitOpen(true)
			g.logger.WarnContext(ctx, "notification circuit opened", "breaker", g.breaker.Name())
		}
		return "", err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.metrics.setCircuitOpen(false)
		g.logger.InfoContext(ctx, "notification circuit closed", "breaker", g.breaker.Name())
	}
	return deliveryID, nil
}

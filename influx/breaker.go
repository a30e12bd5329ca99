package influx

import (
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/chenqi92/inflowave-sub011/connection"
	"github.com/chenqi92/inflowave-sub011/metric"
)

// newBreaker builds the per-connection circuit breaker. State transitions are
// logged and, when metrics are enabled, exported as a gauge.
func newBreaker(profile connection.Profile, cfg BreakerConfig, metrics *metric.Metrics, logger *slog.Logger) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        profile.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"connection_id", profile.ID,
				"breaker", name,
				"from", from.String(),
				"to", to.String())
			if metrics != nil {
				metrics.RecordCircuitBreakerState(profile.ID, stateGaugeValue(to))
			}
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// stateGaugeValue maps breaker states onto the gauge encoding
// (0=closed, 1=open, 2=half-open).
func stateGaugeValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

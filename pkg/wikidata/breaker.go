package wikidata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/lancong/pkg/alert"
	"github.com/soundprediction/lancong/pkg/config"
	"github.com/soundprediction/lancong/pkg/metrics"
)

// BreakerResolver wraps a Resolver with circuit breaking. Only transport
// failures count against the breaker; a lookup with no match is a success.
type BreakerResolver struct {
	resolver Resolver
	cb       *gobreaker.CircuitBreaker
	name     string
}

// NewBreakerResolver creates a circuit breaking resolver. When cfg is
// disabled the inner resolver is returned unchanged.
func NewBreakerResolver(resolver Resolver, cfg config.CircuitBreakerConfig, alerter alert.Alerter, logger *slog.Logger, name string) Resolver {
	if !cfg.Enabled {
		return resolver
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
			if to == gobreaker.StateOpen && alerter != nil {
				msg := fmt.Sprintf("Circuit breaker '%s' changed status from %s to %s. Knowledge-base lookups are failing.", name, from, to)
				if err := alerter.Alert(fmt.Sprintf("Circuit breaker tripped - %s", name), msg); err != nil {
					logger.Error("failed to send alert", "error", err)
				}
			}
		},
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return &BreakerResolver{
		resolver: resolver,
		cb:       gobreaker.NewCircuitBreaker(st),
		name:     name,
	}
}

// errTransport carries a transport failure through gobreaker.Execute.
type errTransport struct {
	result LookupResult
}

func (e *errTransport) Error() string {
	if e.result.Err != nil {
		return e.result.Err.Error()
	}
	return "transport error"
}

// Resolve implements Resolver.
func (b *BreakerResolver) Resolve(ctx context.Context, name, locale string) LookupResult {
	out, err := b.cb.Execute(func() (interface{}, error) {
		result := b.resolver.Resolve(ctx, name, locale)
		if result.Status == TransportError {
			return nil, &errTransport{result: result}
		}
		return result, nil
	})
	if err != nil {
		var te *errTransport
		if errors.As(err, &te) {
			return te.result
		}
		// Open or half-open rejection.
		return transportError(fmt.Errorf("%s: %w", b.name, err))
	}
	return out.(LookupResult)
}

// State returns the current breaker state.
func (b *BreakerResolver) State() gobreaker.State {
	return b.cb.State()
}

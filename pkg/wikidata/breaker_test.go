package wikidata

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/lancong/pkg/config"
)

type recordingAlerter struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingAlerter) Alert(subject, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subjects)
}

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}
}

func TestBreakerResolverDisabledReturnsInner(t *testing.T) {
	inner := ResolverFunc(func(ctx context.Context, name, locale string) LookupResult {
		return LookupResult{Status: NotFound}
	})
	cfg := breakerConfig()
	cfg.Enabled = false

	r := NewBreakerResolver(inner, cfg, nil, nil, "wikidata-disabled")
	_, wrapped := r.(*BreakerResolver)
	assert.False(t, wrapped)
}

func TestBreakerResolverOpensOnTransportErrors(t *testing.T) {
	var calls int
	inner := ResolverFunc(func(ctx context.Context, name, locale string) LookupResult {
		calls++
		return transportError(errors.New("connection refused"))
	})
	alerter := &recordingAlerter{}

	r := NewBreakerResolver(inner, breakerConfig(), alerter, nil, "wikidata-open-test")
	br, ok := r.(*BreakerResolver)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		result := r.Resolve(context.Background(), "Borobudur", "id")
		assert.Equal(t, TransportError, result.Status)
		assert.EqualError(t, result.Err, "connection refused")
	}
	assert.Equal(t, gobreaker.StateOpen, br.State())
	assert.Equal(t, 1, alerter.count())

	// Short-circuited: inner is not called.
	result := r.Resolve(context.Background(), "Borobudur", "id")
	assert.Equal(t, TransportError, result.Status)
	assert.ErrorIs(t, result.Err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls)
}

func TestBreakerResolverNotFoundIsSuccess(t *testing.T) {
	inner := ResolverFunc(func(ctx context.Context, name, locale string) LookupResult {
		return LookupResult{Status: NotFound}
	})

	r := NewBreakerResolver(inner, breakerConfig(), nil, nil, "wikidata-notfound-test")
	for i := 0; i < 10; i++ {
		assert.Equal(t, NotFound, r.Resolve(context.Background(), "x", "id").Status)
	}
	assert.Equal(t, gobreaker.StateClosed, r.(*BreakerResolver).State())
}

func TestBreakerResolverPassesFoundThrough(t *testing.T) {
	uri := "http://www.wikidata.org/entity/Q42"
	inner := ResolverFunc(func(ctx context.Context, name, locale string) LookupResult {
		return LookupResult{Status: Found, Entity: Entity{URI: &uri}}
	})

	result := NewBreakerResolver(inner, breakerConfig(), nil, nil, "wikidata-found-test").
		Resolve(context.Background(), "x", "id")
	require.Equal(t, Found, result.Status)
	assert.Equal(t, uri, *result.Entity.URI)
}

package crossencoder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/soundprediction/lancong/pkg/types"
)

// Lazy defers construction of a Client until the first Score call and shares
// the result with every later caller. A failed load is reported as a
// types.ConfigurationError on every call.
type Lazy struct {
	newClient func() (Client, error)

	once   sync.Once
	client Client
	err    error
	ready  atomic.Bool
}

// NewLazy wraps a constructor.
func NewLazy(newClient func() (Client, error)) *Lazy {
	return &Lazy{newClient: newClient}
}

func (l *Lazy) load() (Client, error) {
	l.once.Do(func() {
		client, err := l.newClient()
		if err != nil {
			l.err = types.NewConfigurationError("reranker", fmt.Errorf("model load failed: %w", err))
			return
		}
		l.client = client
		l.ready.Store(true)
	})
	return l.client, l.err
}

// Score loads the model if needed and scores passages.
func (l *Lazy) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	client, err := l.load()
	if err != nil {
		return nil, err
	}
	return client.Score(ctx, query, passages)
}

// Warm loads the model now instead of on the first request.
func (l *Lazy) Warm() error {
	_, err := l.load()
	return err
}

// Loaded reports whether the model has been constructed. It never triggers a load.
func (l *Lazy) Loaded() bool {
	return l.ready.Load()
}

// Close releases the model if it was loaded.
func (l *Lazy) Close() error {
	if l.ready.Load() {
		return l.client.Close()
	}
	return nil
}

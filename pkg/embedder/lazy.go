package embedder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/soundprediction/lancong/pkg/types"
)

const component = "embedder"

// Lazy defers construction of a Client until first use. The constructor runs
// at most once per process; its result, success or failure, is shared by all
// callers. Lazy is safe for concurrent use.
type Lazy struct {
	newClient  func() (Client, error)
	dimensions int

	once   sync.Once
	client Client
	err    error
	ready  atomic.Bool
}

// NewLazy wraps a constructor. When dimensions is positive, every returned
// vector must have exactly that length.
func NewLazy(newClient func() (Client, error), dimensions int) *Lazy {
	return &Lazy{newClient: newClient, dimensions: dimensions}
}

func (l *Lazy) load() (Client, error) {
	l.once.Do(func() {
		client, err := l.newClient()
		if err != nil {
			l.err = types.NewConfigurationError(component, fmt.Errorf("model load failed: %w", err))
			return
		}
		if l.dimensions > 0 && client.Dimensions() > 0 && client.Dimensions() != l.dimensions {
			client.Close()
			l.err = types.NewConfigurationError(component,
				fmt.Errorf("model produces %d dimensions, configured %d", client.Dimensions(), l.dimensions))
			return
		}
		l.client = client
		l.ready.Store(true)
	})
	return l.client, l.err
}

// Embed loads the model if needed and embeds texts.
func (l *Lazy) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	client, err := l.load()
	if err != nil {
		return nil, err
	}
	vectors, err := client.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for _, vec := range vectors {
		if err := l.checkDimensions(vec); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

// EmbedSingle loads the model if needed and embeds one text.
func (l *Lazy) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, l, text)
}

// Dimensions returns the configured dimension, or the loaded model's when
// none was configured.
func (l *Lazy) Dimensions() int {
	if l.dimensions > 0 {
		return l.dimensions
	}
	client, err := l.load()
	if err != nil {
		return 0
	}
	return client.Dimensions()
}

// Warm loads the model now instead of on the first request.
func (l *Lazy) Warm() error {
	_, err := l.load()
	return err
}

// Loaded reports whether the model has been constructed successfully.
// It never triggers a load.
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

func (l *Lazy) checkDimensions(vec []float32) error {
	if l.dimensions > 0 && len(vec) != l.dimensions {
		return types.NewConfigurationError(component,
			fmt.Errorf("embedding has %d dimensions, configured %d", len(vec), l.dimensions))
	}
	return nil
}

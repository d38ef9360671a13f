package embedder

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundprediction/lancong/pkg/metrics"
)

// Instrumented wraps a Client with request metrics and debug logging.
type Instrumented struct {
	inner    Client
	provider string
	logger   *slog.Logger
}

// NewInstrumented wraps inner. A nil logger uses slog.Default().
func NewInstrumented(inner Client, provider Provider, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{inner: inner, provider: string(provider), logger: logger}
}

// Embed delegates to the inner client and records the outcome.
func (i *Instrumented) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := i.inner.Embed(ctx, texts)
	duration := time.Since(start)

	metrics.EmbeddingRequestsTotal.WithLabelValues(i.provider, metrics.Status(err)).Inc()
	if err != nil {
		i.logger.ErrorContext(ctx, "Embedding request failed",
			"provider", i.provider,
			"batch_size", len(texts),
			"duration", duration,
			"error", err)
		return nil, err
	}
	metrics.EmbeddingRequestDuration.WithLabelValues(i.provider).Observe(duration.Seconds())

	i.logger.DebugContext(ctx, "Embedding request completed",
		"provider", i.provider,
		"batch_size", len(texts),
		"duration", duration)
	return vectors, nil
}

// EmbedSingle embeds one text.
func (i *Instrumented) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, i, text)
}

// Dimensions returns the inner client's dimension.
func (i *Instrumented) Dimensions() int {
	return i.inner.Dimensions()
}

// Close closes the inner client.
func (i *Instrumented) Close() error {
	return i.inner.Close()
}

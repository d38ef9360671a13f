package crossencoder

import (
	"context"
	"fmt"
	"sync"

	"github.com/soundprediction/go-embedeverything/pkg/embedder"
)

// EmbedEverythingClient implements Client with a local cross-encoder loaded
// through go-embedeverything.
type EmbedEverythingClient struct {
	// The underlying runtime is not reentrant.
	mu       sync.Mutex
	reranker *embedder.Reranker
	config   *EmbedEverythingConfig
}

// EmbedEverythingConfig extends Config with EmbedEverything-specific settings.
type EmbedEverythingConfig struct {
	*Config
}

// NewEmbedEverythingClient loads the configured cross-encoder model.
func NewEmbedEverythingClient(config *EmbedEverythingConfig) (*EmbedEverythingClient, error) {
	if config == nil || config.Config == nil {
		defaults := DefaultConfig(ProviderEmbedEverything)
		config = &EmbedEverythingConfig{Config: &defaults}
	}
	if config.Model == "" {
		config.Model = DefaultConfig(ProviderEmbedEverything).Model
	}

	reranker, err := embedder.NewReranker(config.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create reranker: %w", err)
	}

	return &EmbedEverythingClient{
		reranker: reranker,
		config:   config,
	}, nil
}

// Score scores every passage against query. The runtime reports results by
// passage text, so scores are mapped back to input positions; identical
// passages share a score.
func (e *EmbedEverythingClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}

	unique := make([]string, 0, len(passages))
	seen := make(map[string]struct{}, len(passages))
	for _, p := range passages {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			unique = append(unique, p)
		}
	}

	batchSize := e.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(unique)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	byText := make(map[string]float64, len(unique))
	for start := 0; start < len(unique); start += batchSize {
		// go-embedeverything does not support context yet
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, len(unique))
		results, err := e.reranker.Rerank(query, unique[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to rerank passages: %w", err)
		}
		for _, result := range results {
			byText[result.Text] = float64(result.Score)
		}
	}

	scores := make([]float64, len(passages))
	for i, p := range passages {
		score, ok := byText[p]
		if !ok {
			return nil, fmt.Errorf("reranker returned no score for passage %d", i)
		}
		scores[i] = score
	}
	return scores, nil
}

// Close releases the model.
func (e *EmbedEverythingClient) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reranker.Close()
	return nil
}

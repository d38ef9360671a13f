package crossencoder

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundprediction/lancong/pkg/embedder"
)

// Client scores passages by relevance to a query.
type Client interface {
	// Score returns one relevance score per passage, in input order.
	// Higher is more relevant; the scale depends on the implementation.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)

	// Close releases model resources.
	Close() error
}

// Config holds settings shared by all cross-encoder implementations.
type Config struct {
	Model     string `json:"model,omitempty"`
	BatchSize int    `json:"batch_size,omitempty"`
}

// RankedPassage is a passage with its relevance score and input position.
type RankedPassage struct {
	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
	Index   int     `json:"index"`
}

// Rank scores passages and returns them by descending score. Equal scores
// keep input order.
func Rank(ctx context.Context, client Client, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}
	scores, err := client.Score(ctx, query, passages)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(passages) {
		return nil, fmt.Errorf("scorer returned %d scores for %d passages", len(scores), len(passages))
	}

	ranked := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		ranked[i] = RankedPassage{Passage: passage, Score: scores[i], Index: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// Provider represents the type of cross-encoder provider.
type Provider string

const (
	// ProviderEmbedEverything uses go-embedeverything for local cross-encoding.
	ProviderEmbedEverything Provider = "embedeverything"

	// ProviderEmbedding uses embedding cosine similarity.
	ProviderEmbedding Provider = "embedding"

	// ProviderLocal uses term frequency cosine similarity.
	ProviderLocal Provider = "local"

	// ProviderMock uses a deterministic implementation for testing.
	ProviderMock Provider = "mock"
)

// ClientConfig holds configuration for creating cross-encoder clients.
type ClientConfig struct {
	Provider        Provider         `json:"provider"`
	Config          Config           `json:"config"`
	EmbedderClient  embedder.Client  `json:"-"` // Required for embedding provider
	EmbeddingConfig *EmbeddingConfig `json:"embedding_config,omitempty"`
}

// NewClient creates a cross-encoder client for the provider type.
func NewClient(clientConfig ClientConfig) (Client, error) {
	switch clientConfig.Provider {
	case ProviderEmbedEverything:
		return NewEmbedEverythingClient(&EmbedEverythingConfig{Config: &clientConfig.Config})

	case ProviderEmbedding:
		if clientConfig.EmbedderClient == nil {
			return nil, fmt.Errorf("embedder client is required for embedding provider")
		}
		embeddingConfig := EmbeddingConfig{Config: clientConfig.Config}
		if clientConfig.EmbeddingConfig != nil {
			embeddingConfig = *clientConfig.EmbeddingConfig
		}
		return NewEmbeddingRerankerClient(clientConfig.EmbedderClient, embeddingConfig), nil

	case ProviderLocal:
		return NewLocalRerankerClient(clientConfig.Config), nil

	case ProviderMock:
		return NewMockRerankerClient(clientConfig.Config), nil

	default:
		return nil, fmt.Errorf("unsupported cross-encoder provider: %s", clientConfig.Provider)
	}
}

// DefaultConfig returns a default configuration for the given provider.
func DefaultConfig(provider Provider) Config {
	switch provider {
	case ProviderEmbedEverything:
		return Config{
			Model:     "cross-encoder/ms-marco-MiniLM-L-6-v2",
			BatchSize: 100,
		}
	case ProviderEmbedding:
		return Config{
			BatchSize: 50,
		}
	case ProviderLocal, ProviderMock:
		return Config{
			BatchSize: 100,
		}
	default:
		return Config{}
	}
}

package crossencoder

import (
	"context"
	"fmt"
	"math"

	"github.com/soundprediction/lancong/pkg/embedder"
	"github.com/soundprediction/lancong/pkg/utils"
)

// EmbeddingRerankerClient scores passages by cosine similarity between query
// and passage embeddings. It is a bi-encoder approximation of a
// cross-encoder that reuses the search embedder instead of a second model.
type EmbeddingRerankerClient struct {
	embedder embedder.Client
	config   EmbeddingConfig
}

// EmbeddingConfig holds embedding-specific configuration.
type EmbeddingConfig struct {
	Config
	// NormalizeScores rescales scores to the 0-1 range per call.
	NormalizeScores bool `json:"normalize_scores,omitempty"`
}

// NewEmbeddingRerankerClient creates a new embedding-based reranker client.
func NewEmbeddingRerankerClient(embedderClient embedder.Client, config EmbeddingConfig) *EmbeddingRerankerClient {
	return &EmbeddingRerankerClient{
		embedder: embedderClient,
		config:   config,
	}
}

// Score embeds the query and all passages in one batch and returns cosine
// similarities in input order.
func (c *EmbeddingRerankerClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}
	if c.embedder == nil {
		return nil, fmt.Errorf("embedder client is nil")
	}

	texts := make([]string, 0, len(passages)+1)
	texts = append(texts, query)
	texts = append(texts, passages...)

	embeddings, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	queryEmbedding := embeddings[0]
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	scores := make([]float64, len(passages))
	for i := range passages {
		scores[i] = utils.CosineSimilarity(queryEmbedding, embeddings[i+1])
	}

	if c.config.NormalizeScores {
		normalize(scores)
	}
	return scores, nil
}

// Close is a no-op; the embedder is owned by the caller.
func (c *EmbeddingRerankerClient) Close() error {
	return nil
}

// normalize rescales scores to 0-1 in place. Equal scores all become 1.
func normalize(scores []float64) {
	if len(scores) == 0 {
		return
	}
	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		minScore = math.Min(minScore, s)
		maxScore = math.Max(maxScore, s)
	}
	if maxScore == minScore {
		for i := range scores {
			scores[i] = 1.0
		}
		return
	}
	scoreRange := maxScore - minScore
	for i := range scores {
		scores[i] = (scores[i] - minScore) / scoreRange
	}
}

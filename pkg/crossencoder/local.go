package crossencoder

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// LocalRerankerClient scores passages by cosine similarity of term
// frequency vectors. It needs no model and suits development setups.
type LocalRerankerClient struct {
	config Config
}

// NewLocalRerankerClient creates a term frequency reranker.
func NewLocalRerankerClient(config Config) *LocalRerankerClient {
	return &LocalRerankerClient{config: config}
}

// Score returns term frequency cosine similarities in input order.
func (c *LocalRerankerClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	queryTF := termFrequencies(query)
	scores := make([]float64, len(passages))
	for i, passage := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[i] = tfCosine(queryTF, termFrequencies(passage))
	}
	return scores, nil
}

// Close is a no-op.
func (c *LocalRerankerClient) Close() error {
	return nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func termFrequencies(text string) map[string]float64 {
	tf := make(map[string]float64)
	for _, token := range tokenize(text) {
		tf[token]++
	}
	return tf
}

func tfCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, fa := range a {
		dot += fa * b[term]
		normA += fa * fa
	}
	for _, fb := range b {
		normB += fb * fb
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

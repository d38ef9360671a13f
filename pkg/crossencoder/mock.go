package crossencoder

import (
	"context"
	"sync/atomic"
)

// MockRerankerClient returns deterministic scores: the fraction of query
// tokens present in each passage.
type MockRerankerClient struct {
	config Config
	calls  atomic.Int64
}

// NewMockRerankerClient creates a mock reranker.
func NewMockRerankerClient(config Config) *MockRerankerClient {
	return &MockRerankerClient{config: config}
}

// Score returns token overlap scores in input order.
func (m *MockRerankerClient) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	m.calls.Add(1)

	queryTokens := tokenize(query)
	scores := make([]float64, len(passages))
	if len(queryTokens) == 0 {
		return scores, nil
	}
	for i, passage := range passages {
		present := make(map[string]bool)
		for _, token := range tokenize(passage) {
			present[token] = true
		}
		var hits int
		for _, token := range queryTokens {
			if present[token] {
				hits++
			}
		}
		scores[i] = float64(hits) / float64(len(queryTokens))
	}
	return scores, nil
}

// Calls returns the number of Score invocations.
func (m *MockRerankerClient) Calls() int64 {
	return m.calls.Load()
}

// Close is a no-op.
func (m *MockRerankerClient) Close() error {
	return nil
}

package embedder

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"

	"github.com/soundprediction/lancong/pkg/utils"
)

// MockEmbedder produces deterministic unit vectors derived from the tokens
// of each text. Texts sharing words get similar vectors.
type MockEmbedder struct {
	dimensions int
	calls      atomic.Int64
}

// NewMockEmbedder creates a mock embedder. Non-positive dimensions default to 384.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns one vector per text.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

// EmbedSingle embeds one text.
func (m *MockEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, m, text)
}

// Dimensions returns the vector length.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

// Calls returns the number of Embed invocations.
func (m *MockEmbedder) Calls() int64 {
	return m.calls.Load()
}

// Close is a no-op.
func (m *MockEmbedder) Close() error {
	return nil
}

func (m *MockEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()
		vec[sum%uint64(m.dimensions)] += 1
		vec[(sum>>32)%uint64(m.dimensions)] += 0.5
	}

	if normalized := utils.Normalize(vec); normalized != nil {
		return normalized
	}
	vec[0] = 1
	return vec
}

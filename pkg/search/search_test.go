package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/soundprediction/lancong/pkg/driver/drivertest"
	"github.com/soundprediction/lancong/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver() *drivertest.MemoryDriver {
	d := drivertest.New(3)
	d.AddPlace(map[string]any{"id": int64(1), "name": "Pantai Kuta", "city": "Bali", "embedding": []float64{1, 0, 0}})
	d.AddPlace(map[string]any{"id": int64(2), "name": "Pantai Sanur", "city": "Bali", "embedding": []float64{0.9, 0.1, 0}})
	d.AddPlace(map[string]any{"id": int64(3), "name": "Candi Borobudur", "city": "Magelang", "embedding": []float64{0, 1, 0}})
	d.AddPlace(map[string]any{"id": int64(4), "name": "Museum Pantai", "city": "Jakarta"})
	return d
}

func TestLexical(t *testing.T) {
	s := NewSearcher(newTestDriver(), Config{Dimensions: 3}, nil)
	ctx := context.Background()

	places, err := s.Lexical(ctx, "PANTAI")
	require.NoError(t, err)
	require.Len(t, places, 3)
	assert.Equal(t, []int64{1, 2, 4}, []int64{places[0].ID, places[1].ID, places[2].ID})

	places, err = s.Lexical(ctx, "zzz")
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)

	places, err = s.Lexical(ctx, "")
	require.NoError(t, err)
	assert.Len(t, places, 4)
}

func TestLexicalCap(t *testing.T) {
	d := drivertest.New(3)
	for i := 0; i < 30; i++ {
		d.AddPlace(map[string]any{"id": int64(i), "name": fmt.Sprintf("Taman %d", i)})
	}
	s := NewSearcher(d, DefaultConfig(), nil)

	places, err := s.Lexical(context.Background(), "taman")
	require.NoError(t, err)
	assert.Len(t, places, types.LexicalSearchLimit)
}

func TestLexicalStoreError(t *testing.T) {
	d := newTestDriver()
	d.Err = errors.New("connection refused")
	s := NewSearcher(d, DefaultConfig(), nil)

	_, err := s.Lexical(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, d.Err)
}

func TestVector(t *testing.T) {
	s := NewSearcher(newTestDriver(), Config{Dimensions: 3}, nil)
	ctx := context.Background()

	candidates, err := s.Vector(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, []int64{1, 2}, types.PlaceIDs(candidates))
	assert.GreaterOrEqual(t, *candidates[0].Score, *candidates[1].Score)
	assert.Nil(t, candidates[0].Place.Embedding)

	// places without embeddings are not indexed
	candidates, err = s.Vector(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
}

func TestVectorValidation(t *testing.T) {
	s := NewSearcher(newTestDriver(), Config{Dimensions: 3}, nil)
	ctx := context.Background()

	_, err := s.Vector(ctx, []float32{1, 0, 0}, 0)
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "k", ve.Field)

	_, err = s.Vector(ctx, []float32{1, 0}, 5)
	var ce *types.ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestVectorMissingIndex(t *testing.T) {
	s := NewSearcher(newTestDriver(), Config{VectorIndex: "nope", Dimensions: 3}, nil)

	_, err := s.Vector(context.Background(), []float32{1, 0, 0}, 5)
	assert.True(t, errors.Is(err, &types.ConfigurationError{}))

	err = s.CheckIndex(context.Background())
	assert.True(t, errors.Is(err, &types.ConfigurationError{}))
}

func TestCheckIndex(t *testing.T) {
	d := newTestDriver()
	assert.NoError(t, NewSearcher(d, Config{Dimensions: 3}, nil).CheckIndex(context.Background()))

	err := NewSearcher(d, Config{Dimensions: 384}, nil).CheckIndex(context.Background())
	assert.True(t, errors.Is(err, &types.ConfigurationError{}))
}

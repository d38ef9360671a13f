package search

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/soundprediction/lancong/pkg/crossencoder"
	"github.com/soundprediction/lancong/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableScorer returns preset scores keyed by passage text.
type tableScorer struct {
	scores map[string]float64
	err    error
	calls  int
	seen   [][]string
}

func (s *tableScorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	s.calls++
	s.seen = append(s.seen, passages)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = s.scores[p]
	}
	return out, nil
}

func (s *tableScorer) Close() error { return nil }

func candidate(id int64, name string, description string) types.Candidate {
	c := types.Candidate{
		Place: types.Place{ID: id, Name: name},
		Score: types.Float64Ptr(1 / float64(id+1)),
	}
	if description != "" {
		c.Place.Description = types.StringPtr(description)
	}
	return c
}

func TestRerankIsPermutation(t *testing.T) {
	scorer := &tableScorer{scores: map[string]float64{}}
	var candidates []types.Candidate
	rng := rand.New(rand.NewSource(7))
	for i := int64(0); i < 25; i++ {
		name := string(rune('a'+i%26)) + "-place"
		scorer.scores[name] = rng.Float64()
		candidates = append(candidates, candidate(i, name, ""))
	}
	r := NewReranker(scorer, nil)

	out, err := r.Rerank(context.Background(), "q", candidates, types.FieldName, 0)
	require.NoError(t, err)
	require.Len(t, out, len(candidates))

	in := types.PlaceIDs(candidates)
	got := types.PlaceIDs(out)
	sort.Slice(in, func(i, j int) bool { return in[i] < in[j] })
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, in, got)

	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, *out[i-1].RerankScore, *out[i].RerankScore)
	}
	assert.Equal(t, 1, scorer.calls, "all pairs are scored in one call")
}

func TestRerankStableTies(t *testing.T) {
	scorer := &tableScorer{scores: map[string]float64{"a": 0.5, "b": 0.9, "c": 0.5, "d": 0.5}}
	r := NewReranker(scorer, nil)
	in := []types.Candidate{candidate(1, "a", ""), candidate(2, "b", ""), candidate(3, "c", ""), candidate(4, "d", "")}

	out, err := r.Rerank(context.Background(), "q", in, types.FieldName, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 3, 4}, types.PlaceIDs(out))
	// input untouched
	assert.Equal(t, []int64{1, 2, 3, 4}, types.PlaceIDs(in))
	assert.Nil(t, in[0].RerankScore)
}

func TestRerankTopK(t *testing.T) {
	scorer := &tableScorer{scores: map[string]float64{"a": 0.1, "b": 0.2, "c": 0.3}}
	r := NewReranker(scorer, nil)
	in := []types.Candidate{candidate(1, "a", ""), candidate(2, "b", ""), candidate(3, "c", "")}

	out, err := r.Rerank(context.Background(), "q", in, types.FieldName, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, types.PlaceIDs(out))

	out, err = r.Rerank(context.Background(), "q", in, types.FieldName, 10)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestRerankEmptyInputSkipsModel(t *testing.T) {
	scorer := &tableScorer{}
	r := NewReranker(scorer, nil)

	out, err := r.Rerank(context.Background(), "q", nil, types.FieldName, 5)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out, err = r.RerankWithDescription(context.Background(), "q", []types.Candidate{}, types.FieldName, types.FieldDescription, 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, scorer.calls)
}

func TestRerankMissingFieldScoresEmptyText(t *testing.T) {
	scorer := &tableScorer{scores: map[string]float64{"": 0.0, "Danau Toba": 1}}
	r := NewReranker(scorer, nil)
	in := []types.Candidate{candidate(1, "x", ""), candidate(2, "y", "Danau Toba")}

	out, err := r.Rerank(context.Background(), "q", in, "place.description", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, types.PlaceIDs(out))
	assert.Equal(t, []string{"", "Danau Toba"}, scorer.seen[0])
}

func TestRerankWithDescription(t *testing.T) {
	scorer := &tableScorer{scores: map[string]float64{
		"Candi": 0.8, "candi hindu": 0.2,
		"Pura": 0.4, "pura di bali": 0.9,
	}}
	r := NewReranker(scorer, nil)
	in := []types.Candidate{candidate(1, "Candi", "candi hindu"), candidate(2, "Pura", "pura di bali")}

	out, err := r.RerankWithDescription(context.Background(), "q", in, types.FieldName, types.FieldDescription, 0, 0.3)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 2, scorer.calls)

	// (1-0.3)*0.4 + 0.3*0.9 = 0.55
	assert.Equal(t, int64(2), out[1].Place.ID)
	assert.InDelta(t, 0.55, *out[1].RerankScore, 1e-9)
	// (1-0.3)*0.8 + 0.3*0.2 = 0.62
	assert.Equal(t, int64(1), out[0].Place.ID)
	assert.InDelta(t, 0.62, *out[0].RerankScore, 1e-9)
	assert.InDelta(t, 0.8, *out[0].NameScore, 1e-9)
	assert.InDelta(t, 0.2, *out[0].DescriptionScore, 1e-9)
}

func TestRerankWithDescriptionWeightBounds(t *testing.T) {
	scorer := &tableScorer{scores: map[string]float64{"a": 0.1, "A": 0.9, "b": 0.4, "B": 0.2}}
	r := NewReranker(scorer, nil)
	in := []types.Candidate{candidate(1, "a", "A"), candidate(2, "b", "B")}

	out, err := r.RerankWithDescription(context.Background(), "q", in, types.FieldName, types.FieldDescription, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, types.PlaceIDs(out), "w=0 ranks by name only")

	out, err = r.RerankWithDescription(context.Background(), "q", in, types.FieldName, types.FieldDescription, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, types.PlaceIDs(out), "w=1 ranks by description only")

	for _, w := range []float64{-0.1, 1.5} {
		_, err := r.RerankWithDescription(context.Background(), "q", in, types.FieldName, types.FieldDescription, 0, w)
		var ve *types.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "description_weight", ve.Field)
	}
}

func TestRerankScorerFailureDegrades(t *testing.T) {
	scorer := &tableScorer{err: errors.New("model crashed")}
	r := NewReranker(scorer, nil)
	in := []types.Candidate{candidate(1, "a", "x"), candidate(2, "b", "y"), candidate(3, "c", "z")}

	out, err := r.Rerank(context.Background(), "q", in, types.FieldName, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, types.PlaceIDs(out))
	assert.Nil(t, out[0].RerankScore)

	out, err = r.RerankWithDescription(context.Background(), "q", in, types.FieldName, types.FieldDescription, 0, 0.3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, types.PlaceIDs(out))
	assert.Nil(t, out[0].NameScore)
}

func TestRerankModelLoadFailureIsReported(t *testing.T) {
	scorer := crossencoder.NewLazy(func() (crossencoder.Client, error) {
		return nil, errors.New("model asset missing")
	})
	r := NewReranker(scorer, nil)
	in := []types.Candidate{candidate(1, "a", "x"), candidate(2, "b", "y")}

	out, err := r.Rerank(context.Background(), "q", in, types.FieldName, 1)
	require.Error(t, err)
	assert.Nil(t, out)
	var cfgErr *types.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "reranker", cfgErr.Component)

	_, err = r.RerankWithDescription(context.Background(), "q", in, types.FieldName, types.FieldDescription, 1, 0.5)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRerankCancelledContext(t *testing.T) {
	scorer := &tableScorer{err: context.Canceled}
	r := NewReranker(scorer, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rerank(ctx, "q", []types.Candidate{candidate(1, "a", "")}, types.FieldName, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRerankWithoutScorer(t *testing.T) {
	r := NewReranker(nil, nil)
	out, err := r.Rerank(context.Background(), "q", []types.Candidate{candidate(1, "a", "")}, types.FieldName, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/soundprediction/lancong/pkg/crossencoder"
	"github.com/soundprediction/lancong/pkg/metrics"
	"github.com/soundprediction/lancong/pkg/types"
)

// Reranker reorders candidates by cross-encoder relevance.
type Reranker struct {
	scorer crossencoder.Client
	logger *slog.Logger
}

// NewReranker creates a Reranker. A nil logger uses slog.Default().
func NewReranker(scorer crossencoder.Client, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{scorer: scorer, logger: logger}
}

// Rerank scores the text at field for every candidate against query with a
// single model call, sorts by descending score and keeps the first topK.
// topK <= 0 keeps all. The input slice is not modified.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []types.Candidate, field types.FieldPath, topK int) ([]types.Candidate, error) {
	if len(candidates) == 0 {
		return []types.Candidate{}, nil
	}
	defer metrics.ObserveStage("rerank", time.Now())

	out := cloneCandidates(candidates)
	scores, err := r.score(ctx, query, out, field)
	if err != nil {
		return r.degrade(ctx, out, topK, "single", err)
	}

	for i := range out {
		out[i].RerankScore = types.Float64Ptr(scores[i])
	}
	sortByRerankScore(out)
	return truncate(out, topK), nil
}

// RerankWithDescription scores name and description separately and ranks by
// (1-w)*name + w*description. w must lie in [0, 1].
func (r *Reranker) RerankWithDescription(ctx context.Context, query string, candidates []types.Candidate, nameField, descField types.FieldPath, topK int, w float64) ([]types.Candidate, error) {
	if w < 0 || w > 1 {
		return nil, types.NewValidationError("description_weight", "must be between 0 and 1, got %g", w)
	}
	if len(candidates) == 0 {
		return []types.Candidate{}, nil
	}
	defer metrics.ObserveStage("rerank", time.Now())

	out := cloneCandidates(candidates)
	nameScores, err := r.score(ctx, query, out, nameField)
	if err != nil {
		return r.degrade(ctx, out, topK, "description", err)
	}
	descScores, err := r.score(ctx, query, out, descField)
	if err != nil {
		return r.degrade(ctx, out, topK, "description", err)
	}

	for i := range out {
		combined := (1-w)*nameScores[i] + w*descScores[i]
		out[i].NameScore = types.Float64Ptr(nameScores[i])
		out[i].DescriptionScore = types.Float64Ptr(descScores[i])
		out[i].RerankScore = types.Float64Ptr(combined)
	}
	sortByRerankScore(out)
	return truncate(out, topK), nil
}

func (r *Reranker) score(ctx context.Context, query string, candidates []types.Candidate, field types.FieldPath) ([]float64, error) {
	if r.scorer == nil {
		return nil, fmt.Errorf("no scoring model configured")
	}
	passages := make([]string, len(candidates))
	for i := range candidates {
		passages[i] = field.Text(&candidates[i])
	}
	scores, err := r.scorer.Score(ctx, query, passages)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(passages) {
		return nil, fmt.Errorf("scorer returned %d scores for %d passages", len(scores), len(passages))
	}
	return scores, nil
}

// degrade returns candidates in input order without rerank scores. A
// cancelled request or a model that cannot be loaded is reported instead of
// being absorbed.
func (r *Reranker) degrade(ctx context.Context, candidates []types.Candidate, topK int, mode string, cause error) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cfgErr *types.ConfigurationError
	if errors.As(cause, &cfgErr) {
		return nil, cause
	}
	metrics.RerankDegradedTotal.WithLabelValues(mode).Inc()
	r.logger.WarnContext(ctx, "Rerank failed, keeping retrieval order",
		"mode", mode,
		"candidates", len(candidates),
		"error", cause)

	for i := range candidates {
		candidates[i].RerankScore = nil
		candidates[i].NameScore = nil
		candidates[i].DescriptionScore = nil
	}
	return truncate(candidates, topK), nil
}

func cloneCandidates(candidates []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, len(candidates))
	copy(out, candidates)
	return out
}

func sortByRerankScore(candidates []types.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].RerankScore > *candidates[j].RerankScore
	})
}

func truncate(candidates []types.Candidate, topK int) []types.Candidate {
	if topK > 0 && len(candidates) > topK {
		return candidates[:topK]
	}
	return candidates
}

package lancong

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soundprediction/lancong/pkg/metrics"
	"github.com/soundprediction/lancong/pkg/types"
)

// Strategy names used in metrics and logs.
const (
	StrategyLexical        = "lexical"
	StrategyVector         = "vector"
	StrategyRerank         = "rerank"
	StrategyRerankAdvanced = "rerank_advanced"
)

// SearchOptions controls the optional stages of a search.
type SearchOptions struct {
	// Enrich attaches knowledge-base attributes to the leading results.
	Enrich bool
	// MaxEnrich bounds the number of looked-up results. Zero selects the
	// strategy default; the result count always caps it.
	MaxEnrich int
	// DescriptionWeight overrides the configured weight for advanced reranking.
	DescriptionWeight *float64
}

// Search implements Searcher.
func (c *Client) Search(ctx context.Context, text string, opts SearchOptions) (results []types.Candidate, err error) {
	defer c.observe(ctx, StrategyLexical, time.Now(), &err)

	places, err := c.searcher.Lexical(ctx, text)
	if err != nil {
		return nil, err
	}
	results = make([]types.Candidate, len(places))
	for i, p := range places {
		results[i] = types.Candidate{Place: p}
	}
	return c.maybeEnrich(ctx, results, opts, c.config.DefaultMaxEnrich, len(results)), nil
}

// SearchVector implements Searcher.
func (c *Client) SearchVector(ctx context.Context, text string, k int, opts SearchOptions) (results []types.Candidate, err error) {
	defer c.observe(ctx, StrategyVector, time.Now(), &err)

	if k < 1 {
		return nil, types.NewValidationError("k", "must be at least 1, got %d", k)
	}
	results, err = c.retrieve(ctx, text, k)
	if err != nil {
		return nil, err
	}
	return c.maybeEnrich(ctx, results, opts, k, k), nil
}

// SearchReranked implements Searcher.
func (c *Client) SearchReranked(ctx context.Context, text string, initialK, topK int, opts SearchOptions) (results []types.Candidate, err error) {
	defer c.observe(ctx, StrategyRerank, time.Now(), &err)

	if err := validateRerankBounds(initialK, topK); err != nil {
		return nil, err
	}
	candidates, err := c.retrieve(ctx, text, initialK)
	if err != nil {
		return nil, err
	}
	results, err = c.reranker.Rerank(ctx, text, candidates, types.FieldName, topK)
	if err != nil {
		return nil, err
	}
	return c.maybeEnrich(ctx, results, opts, topK, topK), nil
}

// SearchRerankedAdvanced implements Searcher. Without descriptions among the
// candidates it behaves as SearchReranked.
func (c *Client) SearchRerankedAdvanced(ctx context.Context, text string, initialK, topK int, useDescription bool, opts SearchOptions) (results []types.Candidate, err error) {
	defer c.observe(ctx, StrategyRerankAdvanced, time.Now(), &err)

	if err := validateRerankBounds(initialK, topK); err != nil {
		return nil, err
	}
	w := c.config.DescriptionWeight
	if opts.DescriptionWeight != nil {
		w = *opts.DescriptionWeight
	}
	if w < 0 || w > 1 {
		return nil, types.NewValidationError("description_weight", "must be between 0 and 1, got %g", w)
	}

	candidates, err := c.retrieve(ctx, text, initialK)
	if err != nil {
		return nil, err
	}

	if useDescription && anyDescription(candidates) {
		results, err = c.reranker.RerankWithDescription(ctx, text, candidates, types.FieldName, types.FieldDescription, topK, w)
	} else {
		results, err = c.reranker.Rerank(ctx, text, candidates, types.FieldName, topK)
	}
	if err != nil {
		return nil, err
	}
	return c.maybeEnrich(ctx, results, opts, topK, topK), nil
}

func validateRerankBounds(initialK, topK int) error {
	if topK < 1 {
		return types.NewValidationError("top_k", "must be at least 1, got %d", topK)
	}
	if initialK < topK {
		return types.NewValidationError("initial_k", "must be at least top_k (%d), got %d", topK, initialK)
	}
	return nil
}

func anyDescription(candidates []types.Candidate) bool {
	for i := range candidates {
		if candidates[i].Place.HasDescription() {
			return true
		}
	}
	return false
}

// retrieve embeds text and returns the k nearest places.
func (c *Client) retrieve(ctx context.Context, text string, k int) ([]types.Candidate, error) {
	if c.embedder == nil {
		return nil, types.NewConfigurationError("embedder", errors.New("no embedder configured"))
	}

	start := time.Now()
	vector, err := c.embedder.EmbedSingle(ctx, text)
	metrics.ObserveStage("embed", start)
	if err != nil {
		var cfgErr *types.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return c.searcher.Vector(ctx, vector, k)
}

// maybeEnrich enriches the leading results. opts.MaxEnrich, or fallback
// when unset, is capped at limit.
func (c *Client) maybeEnrich(ctx context.Context, results []types.Candidate, opts SearchOptions, fallback, limit int) []types.Candidate {
	if !opts.Enrich {
		return results
	}
	bound := fallback
	if opts.MaxEnrich > 0 {
		bound = opts.MaxEnrich
	}
	bound = min(bound, limit)
	if c.enricher == nil {
		for i := range results {
			results[i].Place.Enrichment = types.EmptyEnrichment()
		}
		return results
	}

	defer metrics.ObserveStage("enrich", time.Now())
	return c.enricher.EnrichCandidates(ctx, results, bound)
}

func (c *Client) observe(ctx context.Context, strategy string, start time.Time, errp *error) {
	err := *errp
	metrics.SearchRequestsTotal.WithLabelValues(strategy, metrics.Status(err)).Inc()

	var cfgErr *types.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		c.logger.ErrorContext(ctx, "Search misconfigured",
			"strategy", strategy,
			"component", cfgErr.Component,
			"error", err)
	case err != nil:
		c.logger.DebugContext(ctx, "Search failed",
			"strategy", strategy,
			"error", err)
	default:
		c.logger.DebugContext(ctx, "Search completed",
			"strategy", strategy,
			"duration", time.Since(start).String())
	}
}

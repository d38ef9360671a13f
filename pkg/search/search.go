package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/soundprediction/lancong/pkg/driver"
	"github.com/soundprediction/lancong/pkg/metrics"
	"github.com/soundprediction/lancong/pkg/types"
)

const component = "vector_search"

// Config configures a Searcher.
type Config struct {
	// VectorIndex is the name of the place embedding index.
	VectorIndex string
	// Dimensions is the expected query vector length; 0 disables the check.
	Dimensions int
	// LexicalLimit caps lexical results.
	LexicalLimit int
}

// DefaultConfig returns the standard place search configuration.
func DefaultConfig() Config {
	return Config{
		VectorIndex:  "place_embedding",
		Dimensions:   384,
		LexicalLimit: types.LexicalSearchLimit,
	}
}

// Store is the driver surface the searcher needs.
type Store interface {
	driver.GraphCore
	driver.VectorIndex
}

// Searcher generates place candidates from the graph store.
type Searcher struct {
	driver Store
	config Config
	logger *slog.Logger
}

// NewSearcher creates a Searcher. A nil logger uses slog.Default().
func NewSearcher(d Store, config Config, logger *slog.Logger) *Searcher {
	defaults := DefaultConfig()
	if config.VectorIndex == "" {
		config.VectorIndex = defaults.VectorIndex
	}
	if config.LexicalLimit <= 0 {
		config.LexicalLimit = defaults.LexicalLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{driver: d, config: config, logger: logger}
}

// Config returns the searcher configuration.
func (s *Searcher) Config() Config {
	return s.config
}

// Lexical returns places whose name contains q, ignoring case, in store
// order. An empty q matches every place up to the limit.
func (s *Searcher) Lexical(ctx context.Context, q string) ([]types.Place, error) {
	defer metrics.ObserveStage("lexical", time.Now())

	rows, err := s.driver.ExecuteQuery(ctx, driver.LexicalSearchQuery, map[string]any{
		"q":     q,
		"limit": s.config.LexicalLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	places := make([]types.Place, 0, len(rows))
	for _, row := range rows {
		props, ok := driver.AsMap(row["place"])
		if !ok {
			continue
		}
		place, ok := types.PlaceFromMap(props)
		if !ok {
			s.logger.WarnContext(ctx, "Skipping place without id in lexical results")
			continue
		}
		places = append(places, place)
	}
	return places, nil
}

// Vector returns up to k places nearest to vector, by descending similarity.
func (s *Searcher) Vector(ctx context.Context, vector []float32, k int) ([]types.Candidate, error) {
	if k < 1 {
		return nil, types.NewValidationError("k", "must be at least 1, got %d", k)
	}
	if s.config.Dimensions > 0 && len(vector) != s.config.Dimensions {
		return nil, types.NewConfigurationError(component,
			fmt.Errorf("query vector has %d dimensions, index %s expects %d", len(vector), s.config.VectorIndex, s.config.Dimensions))
	}

	defer metrics.ObserveStage("vector", time.Now())

	matches, err := s.driver.QueryVectorIndex(ctx, s.config.VectorIndex, k, vector)
	if err != nil {
		if errors.Is(err, driver.ErrIndexNotFound) {
			return nil, types.NewConfigurationError(component, err)
		}
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(matches))
	for _, match := range matches {
		place, ok := types.PlaceFromMap(match.Properties)
		if !ok {
			s.logger.WarnContext(ctx, "Skipping indexed node without place id",
				"index", s.config.VectorIndex)
			continue
		}
		place.Embedding = nil
		candidates = append(candidates, types.Candidate{
			Place: place,
			Score: types.Float64Ptr(match.Score),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Score > *candidates[j].Score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// CheckIndex verifies that the vector index exists and matches the
// configured dimension.
func (s *Searcher) CheckIndex(ctx context.Context) error {
	dims, err := s.driver.VectorIndexDimensions(ctx, s.config.VectorIndex)
	if err != nil {
		if errors.Is(err, driver.ErrIndexNotFound) {
			return types.NewConfigurationError(component, err)
		}
		return fmt.Errorf("failed to inspect vector index: %w", err)
	}
	if s.config.Dimensions > 0 && dims != s.config.Dimensions {
		return types.NewConfigurationError(component,
			fmt.Errorf("index %s has %d dimensions, configured %d", s.config.VectorIndex, dims, s.config.Dimensions))
	}
	return nil
}

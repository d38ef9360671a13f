package lancong

import (
	"context"
	"errors"
	"log/slog"

	"github.com/soundprediction/lancong/pkg/crossencoder"
	"github.com/soundprediction/lancong/pkg/driver"
	"github.com/soundprediction/lancong/pkg/embedder"
	"github.com/soundprediction/lancong/pkg/enrich"
	"github.com/soundprediction/lancong/pkg/search"
	"github.com/soundprediction/lancong/pkg/types"
)

// Lancong is the retrieval surface served over HTTP.
type Lancong interface {
	Searcher
	PlaceReader
	QueryRunner

	// Ping verifies graph store connectivity.
	Ping(ctx context.Context) error

	// Close releases the models and the graph store connection.
	Close(ctx context.Context) error
}

// Searcher runs the search strategies.
type Searcher interface {
	// Search matches place names by substring.
	Search(ctx context.Context, text string, opts SearchOptions) ([]types.Candidate, error)

	// SearchVector returns the k places nearest to the embedded text.
	SearchVector(ctx context.Context, text string, k int, opts SearchOptions) ([]types.Candidate, error)

	// SearchReranked reranks initialK vector candidates by name and keeps topK.
	SearchReranked(ctx context.Context, text string, initialK, topK int, opts SearchOptions) ([]types.Candidate, error)

	// SearchRerankedAdvanced is SearchReranked that also weighs descriptions
	// when useDescription is set and any candidate has one.
	SearchRerankedAdvanced(ctx context.Context, text string, initialK, topK int, useDescription bool, opts SearchOptions) ([]types.Candidate, error)
}

// PlaceReader reads places and packages by id.
type PlaceReader interface {
	GetPlace(ctx context.Context, id int64) (*types.Place, error)
	GetInfobox(ctx context.Context, id int64) (*types.Place, error)
	GetPackage(ctx context.Context, id int64) (*types.Package, error)
	ListPackages(ctx context.Context, limit int) ([]types.Package, error)
}

// QueryRunner executes ad-hoc read statements.
type QueryRunner interface {
	RunQuery(ctx context.Context, statement string) ([]map[string]any, error)
}

// Config holds configuration for the Client.
type Config struct {
	Search search.Config
	// DescriptionWeight is the default description share for advanced reranking.
	DescriptionWeight float64
	// DefaultMaxEnrich bounds lexical enrichment when the caller sets none.
	DefaultMaxEnrich int
	// PackageLimit is the ListPackages default.
	PackageLimit int
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Search:            search.DefaultConfig(),
		DescriptionWeight: types.DefaultDescriptionWeight,
		DefaultMaxEnrich:  DefaultMaxEnrich,
		PackageLimit:      DefaultPackageLimit,
	}
}

const (
	// DefaultMaxEnrich is the enrichment bound used when none is given.
	DefaultMaxEnrich = 5
	// DefaultPackageLimit is the ListPackages default.
	DefaultPackageLimit = 20
)

// Client is the main implementation of the Lancong interface.
type Client struct {
	driver   driver.GraphDriver
	embedder embedder.Client
	scorer   crossencoder.Client
	searcher *search.Searcher
	reranker *search.Reranker
	enricher *enrich.Resolver
	config   *Config
	logger   *slog.Logger
}

var _ Lancong = (*Client)(nil)

// NewClient creates a Client. embedderClient, scorer and enricher may be nil:
// vector strategies then fail with a ConfigurationError, reranking keeps
// retrieval order, and enrichment null-fills.
func NewClient(d driver.GraphDriver, embedderClient embedder.Client, scorer crossencoder.Client, enricher *enrich.Resolver, config *Config, logger *slog.Logger) (*Client, error) {
	if d == nil {
		return nil, errors.New("graph driver is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DefaultMaxEnrich <= 0 {
		config.DefaultMaxEnrich = DefaultMaxEnrich
	}
	if config.PackageLimit <= 0 {
		config.PackageLimit = DefaultPackageLimit
	}
	if config.DescriptionWeight < 0 || config.DescriptionWeight > 1 {
		return nil, types.NewValidationError("description_weight", "must be between 0 and 1, got %g", config.DescriptionWeight)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		driver:   d,
		embedder: embedderClient,
		scorer:   scorer,
		searcher: search.NewSearcher(d, config.Search, logger),
		reranker: search.NewReranker(scorer, logger),
		enricher: enricher,
		config:   config,
		logger:   logger,
	}, nil
}

// GetSearcher returns the candidate searcher
func (c *Client) GetSearcher() *search.Searcher {
	return c.searcher
}

// Ping implements Lancong.
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close implements Lancong. Every resource is closed and the errors joined.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if c.embedder != nil {
		errs = append(errs, c.embedder.Close())
	}
	if c.scorer != nil {
		errs = append(errs, c.scorer.Close())
	}
	errs = append(errs, c.driver.Close(ctx))
	return errors.Join(errs...)
}

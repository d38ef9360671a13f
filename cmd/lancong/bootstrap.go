package lancong

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/soundprediction/lancong"
	"github.com/soundprediction/lancong/pkg/alert"
	"github.com/soundprediction/lancong/pkg/config"
	"github.com/soundprediction/lancong/pkg/crossencoder"
	"github.com/soundprediction/lancong/pkg/driver"
	"github.com/soundprediction/lancong/pkg/embedder"
	"github.com/soundprediction/lancong/pkg/enrich"
	lancongLogger "github.com/soundprediction/lancong/pkg/logger"
	"github.com/soundprediction/lancong/pkg/search"
	"github.com/soundprediction/lancong/pkg/telemetry"
	"github.com/soundprediction/lancong/pkg/wikidata"
)

// app holds the process-wide collaborators built from configuration.
// Closers run in reverse order of construction.
type app struct {
	logger  *slog.Logger
	driver  driver.GraphDriver
	closers []io.Closer
}

func (r *app) onClose(c io.Closer) {
	r.closers = append(r.closers, c)
}

func (r *app) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			r.logger.Warn("Failed to release resource", "error", err)
		}
	}
}

// newLogger builds the process logger. Error records are also written to
// parquet when a telemetry path is configured.
func newLogger(cfg *config.Config, rt *app) *slog.Logger {
	base := lancongLogger.NewLogger(lancongLogger.Config{
		Level:  lancongLogger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	if cfg.Telemetry.ParquetPath == "" {
		return base
	}

	handler, err := telemetry.NewParquetHandler(base.Handler(), cfg.Telemetry.ParquetPath)
	if err != nil {
		base.Warn("Error tracking disabled", "path", cfg.Telemetry.ParquetPath, "error", err)
		return base
	}
	rt.onClose(handler)
	return slog.New(handler)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	rt := &app{}
	rt.logger = newLogger(cfg, rt)
	slog.SetDefault(rt.logger)

	d, err := driver.NewNeo4jDriver(driver.Config{
		URI:                   cfg.Database.URI,
		Username:              cfg.Database.Username,
		Password:              cfg.Database.Password,
		Database:              cfg.Database.Database,
		MaxConnectionPoolSize: cfg.Database.MaxConnectionPoolSize,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	rt.driver = d
	rt.logger.Info("Graph store configured", "uri", cfg.Database.URI)
	return rt, nil
}

// newEmbedder returns a lazily loaded embedder and its instrumented wrapper.
func newEmbedder(cfg *config.Config, logger *slog.Logger) (*embedder.Lazy, embedder.Client) {
	provider := embedder.Provider(cfg.Embedding.Provider)
	embedderConfig := embedder.Config{
		Provider:   provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
	}
	lazy := embedder.NewLazy(func() (embedder.Client, error) {
		logger.Info("Loading embedding model", "provider", provider, "model", embedderConfig.Model)
		return embedder.NewClient(embedderConfig)
	}, cfg.Embedding.Dimensions)
	return lazy, embedder.NewInstrumented(lazy, provider, logger)
}

// newScorer returns a lazily loaded cross-encoder.
func newScorer(cfg *config.Config, embedderClient embedder.Client, logger *slog.Logger) *crossencoder.Lazy {
	provider := crossencoder.Provider(cfg.Reranker.Provider)
	scorerConfig := crossencoder.DefaultConfig(provider)
	if cfg.Reranker.Model != "" {
		scorerConfig.Model = cfg.Reranker.Model
	}
	if cfg.Reranker.BatchSize > 0 {
		scorerConfig.BatchSize = cfg.Reranker.BatchSize
	}
	return crossencoder.NewLazy(func() (crossencoder.Client, error) {
		logger.Info("Loading cross-encoder", "provider", provider, "model", scorerConfig.Model)
		return crossencoder.NewClient(crossencoder.ClientConfig{
			Provider:       provider,
			Config:         scorerConfig,
			EmbedderClient: embedderClient,
		})
	})
}

// newEnricher wires the SPARQL client behind a circuit breaker and the
// badger cache. It returns nil when enrichment is disabled.
func newEnricher(cfg *config.Config, rt *app) (*enrich.Resolver, error) {
	if !cfg.Enrichment.Enabled {
		rt.logger.Info("Enrichment disabled")
		return nil, nil
	}

	client := wikidata.NewClient(wikidata.Config{
		Endpoint:  cfg.Enrichment.Endpoint,
		Timeout:   time.Duration(cfg.Enrichment.Timeout) * time.Second,
		UserAgent: cfg.Enrichment.UserAgent,
	})
	resolver := wikidata.NewBreakerResolver(client, cfg.CircuitBreaker, alert.New(cfg.Alert, rt.logger), rt.logger, "wikidata")

	var cache enrich.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Path != "" {
			if err := os.MkdirAll(cfg.Cache.Path, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
		badgerCache, err := enrich.OpenBadgerCache(cfg.Cache.Path, time.Duration(cfg.Cache.TTL)*time.Hour, rt.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open enrichment cache: %w", err)
		}
		rt.onClose(badgerCache)
		cache = badgerCache
		rt.logger.Info("Enrichment cache enabled", "path", cfg.Cache.Path, "ttl_hours", cfg.Cache.TTL)
	}

	return enrich.NewResolver(resolver, cfg.Enrichment.Locale, cache, rt.logger), nil
}

// models are the lazily loaded models shared by every request.
type models struct {
	embedder *embedder.Lazy
	scorer   *crossencoder.Lazy
}

// Warm loads both models now instead of on first use.
func (m models) Warm() error {
	if err := m.embedder.Warm(); err != nil {
		return err
	}
	return m.scorer.Warm()
}

// newClient assembles the lancong client. The client owns the driver and the
// models from here on.
func newClient(ctx context.Context, cfg *config.Config, rt *app) (*lancong.Client, models, error) {
	lazyEmbedder, embedderClient := newEmbedder(cfg, rt.logger)
	scorer := newScorer(cfg, embedderClient, rt.logger)
	m := models{embedder: lazyEmbedder, scorer: scorer}

	enricher, err := newEnricher(cfg, rt)
	if err != nil {
		_ = rt.driver.Close(ctx)
		return nil, m, err
	}

	clientConfig := lancong.DefaultConfig()
	clientConfig.Search = search.Config{
		VectorIndex:  cfg.Search.VectorIndex,
		Dimensions:   cfg.Embedding.Dimensions,
		LexicalLimit: cfg.Search.LexicalLimit,
	}
	clientConfig.DescriptionWeight = cfg.Search.DescriptionWeight

	client, err := lancong.NewClient(rt.driver, embedderClient, scorer, enricher, clientConfig, rt.logger)
	if err != nil {
		_ = rt.driver.Close(ctx)
		return nil, m, fmt.Errorf("failed to create lancong client: %w", err)
	}
	return client, m, nil
}

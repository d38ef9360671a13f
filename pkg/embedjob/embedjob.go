// Package embedjob populates place name embeddings and the vector index
// that vector search reads from.
package embedjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/soundprediction/lancong/pkg/driver"
	"github.com/soundprediction/lancong/pkg/embedder"
	"github.com/soundprediction/lancong/pkg/metrics"
	"github.com/soundprediction/lancong/pkg/types"
	"github.com/soundprediction/lancong/pkg/utils"
)

// Config controls an embedding run.
type Config struct {
	IndexName  string
	Dimensions int
	// BatchSize is the number of names sent to the embedder per call.
	BatchSize int
	// Workers bounds concurrent batches.
	Workers int
	// Overwrite re-embeds places that already carry an embedding.
	Overwrite bool
	// PageSize is the number of places read per query.
	PageSize int
}

// DefaultConfig returns the configuration for the place_embedding index.
func DefaultConfig() Config {
	return Config{
		IndexName:  "place_embedding",
		Dimensions: 384,
		BatchSize:  32,
		Workers:    4,
		PageSize:   1000,
	}
}

// Report summarizes a run.
type Report struct {
	Total    int           `json:"total"`
	Embedded int           `json:"embedded"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Job embeds place names and writes them back to the graph store.
type Job struct {
	driver   driver.GraphDriver
	embedder embedder.Client
	config   Config
	logger   *slog.Logger
}

type placeName struct {
	id   int64
	name string
}

// New creates a Job.
func New(d driver.GraphDriver, e embedder.Client, config Config, logger *slog.Logger) (*Job, error) {
	if d == nil {
		return nil, errors.New("graph driver is required")
	}
	if e == nil {
		return nil, errors.New("embedder is required")
	}
	defaults := DefaultConfig()
	if config.IndexName == "" {
		config.IndexName = defaults.IndexName
	}
	if config.Dimensions <= 0 {
		config.Dimensions = e.Dimensions()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{driver: d, embedder: e, config: config, logger: logger}, nil
}

// Run ensures the vector index exists, then embeds every eligible place.
// Per-place failures are counted in the report; only index or read failures
// abort the run.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	if err := j.ensureIndex(ctx); err != nil {
		return nil, err
	}

	places, skipped, err := j.collect(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{Total: len(places) + skipped, Skipped: skipped}
	metrics.EmbedJobPlacesTotal.WithLabelValues("skipped").Add(float64(skipped))

	j.logger.Info("Starting place embedding",
		"places", len(places),
		"skipped", skipped,
		"workers", j.config.Workers,
		"batch_size", j.config.BatchSize)

	pool, err := ants.NewPool(j.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var embedded, failed atomic.Int64
	var wg sync.WaitGroup
	batches := utils.Chunk(places, j.config.BatchSize)

	for i, batch := range batches {
		if ctx.Err() != nil {
			failed.Add(int64(countRemaining(batches[i:])))
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer utils.RecoverWithCallback(func(err error) {
				j.logger.Error("embedding batch panicked", "error", err)
			})
			ok, bad := j.processBatch(ctx, batch)
			embedded.Add(int64(ok))
			failed.Add(int64(bad))
			j.logger.Info("Persisted place embeddings batch",
				"embedded", ok,
				"failed", bad,
				"done", embedded.Load()+failed.Load(),
				"of", len(places))
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(int64(len(batch)))
			j.logger.Error("failed to submit embedding batch", "error", submitErr)
		}
	}
	wg.Wait()

	report.Embedded = int(embedded.Load())
	report.Failed = len(places) - report.Embedded
	report.Duration = time.Since(start)

	j.logger.Info("Place embedding finished",
		"total", report.Total,
		"embedded", report.Embedded,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration.String())

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func countRemaining(batches [][]placeName) int {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	return n
}

// ensureIndex creates the index if absent and checks an existing index has
// the configured dimension.
func (j *Job) ensureIndex(ctx context.Context) error {
	dims, err := j.driver.VectorIndexDimensions(ctx, j.config.IndexName)
	switch {
	case err == nil:
		if dims != j.config.Dimensions {
			return types.NewConfigurationError("vector_index",
				fmt.Errorf("index %s has dimension %d, embedder produces %d", j.config.IndexName, dims, j.config.Dimensions))
		}
		return nil
	case errors.Is(err, driver.ErrIndexNotFound):
		if err := j.driver.CreateVectorIndex(ctx, j.config.IndexName, driver.PlaceLabel, driver.EmbeddingProperty, j.config.Dimensions); err != nil {
			return fmt.Errorf("failed to create vector index %s: %w", j.config.IndexName, err)
		}
		j.logger.Info("Vector index created", "index", j.config.IndexName, "dimensions", j.config.Dimensions)
		return nil
	default:
		return fmt.Errorf("failed to inspect vector index %s: %w", j.config.IndexName, err)
	}
}

// collect reads every eligible place before any write so paging is not
// disturbed by places leaving the eligible set.
func (j *Job) collect(ctx context.Context) ([]placeName, int, error) {
	var places []placeName
	skipped := 0
	for skip := 0; ; skip += j.config.PageSize {
		rows, err := j.driver.ExecuteQuery(ctx, driver.PlacesForEmbeddingQuery, map[string]any{
			"overwrite": j.config.Overwrite,
			"skip":      skip,
			"limit":     j.config.PageSize,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read places: %w", err)
		}
		for _, row := range rows {
			id, ok := driver.AsInt64(row["id"])
			name, _ := driver.AsString(row["name"])
			if !ok || strings.TrimSpace(name) == "" {
				skipped++
				continue
			}
			places = append(places, placeName{id: id, name: name})
		}
		if len(rows) < j.config.PageSize {
			return places, skipped, nil
		}
	}
}

func (j *Job) processBatch(ctx context.Context, batch []placeName) (embedded, failed int) {
	names := make([]string, len(batch))
	for i, p := range batch {
		names[i] = p.name
	}

	vectors, err := j.embedder.Embed(ctx, names)
	if err == nil && len(vectors) != len(batch) {
		err = fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
	}
	if err != nil {
		j.logger.Warn("embedding batch failed", "size", len(batch), "error", err)
		metrics.EmbedJobPlacesTotal.WithLabelValues("failed").Add(float64(len(batch)))
		return 0, len(batch)
	}

	for i, p := range batch {
		if len(vectors[i]) != j.config.Dimensions {
			j.logger.Warn("embedding has wrong dimension", "place_id", p.id, "got", len(vectors[i]), "want", j.config.Dimensions)
			failed++
			metrics.EmbedJobPlacesTotal.WithLabelValues("failed").Inc()
			continue
		}
		err := j.driver.ExecuteWrite(ctx, driver.SetPlaceEmbeddingQuery, map[string]any{
			"id":        p.id,
			"embedding": driver.Float64Vector(vectors[i]),
		})
		if err != nil {
			j.logger.Warn("failed to store embedding", "place_id", p.id, "error", err)
			failed++
			metrics.EmbedJobPlacesTotal.WithLabelValues("failed").Inc()
			continue
		}
		embedded++
		metrics.EmbedJobPlacesTotal.WithLabelValues("embedded").Inc()
	}
	return embedded, failed
}

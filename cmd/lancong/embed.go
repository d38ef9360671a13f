package lancong

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundprediction/lancong/pkg/config"
	"github.com/soundprediction/lancong/pkg/embedjob"
	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Populate place name embeddings",
	Long: `Embed the name of every place and store it on the place node.

The vector index is created with the configured dimension when it does not
exist. Places that already carry an embedding are skipped unless --overwrite
is set. Per-place failures are counted and reported; they do not stop the run.`,
	RunE: runEmbed,
}

var (
	embedOverwrite bool
	embedWorkers   int
	embedBatchSize int
)

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().BoolVar(&embedOverwrite, "overwrite", false, "Re-embed places that already have an embedding")
	embedCmd.Flags().IntVar(&embedWorkers, "workers", 0, "Concurrent embedding batches (default from config)")
	embedCmd.Flags().IntVar(&embedBatchSize, "batch-size", 0, "Names per embedding call (default from config)")
	addDatabaseFlags(embedCmd)
	embedCmd.Flags().String("embedding-provider", "embedeverything", "Embedding provider (embedeverything, openai, mock)")
	embedCmd.Flags().String("embedding-model", "", "Embedding model")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	defer rt.driver.Close(context.Background())

	lazyEmbedder, embedderClient := newEmbedder(cfg, rt.logger)
	defer lazyEmbedder.Close()

	jobConfig := embedjob.DefaultConfig()
	jobConfig.IndexName = cfg.Search.VectorIndex
	jobConfig.Dimensions = cfg.Embedding.Dimensions
	jobConfig.BatchSize = cfg.Embedding.BatchSize
	jobConfig.Workers = cfg.Embedding.Workers
	jobConfig.Overwrite = embedOverwrite
	if embedWorkers > 0 {
		jobConfig.Workers = embedWorkers
	}
	if embedBatchSize > 0 {
		jobConfig.BatchSize = embedBatchSize
	}

	job, err := embedjob.New(rt.driver, embedderClient, jobConfig, rt.logger)
	if err != nil {
		return err
	}
	report, err := job.Run(ctx)
	if report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "places: %d  embedded: %d  skipped: %d  failed: %d  (%s)\n",
			report.Total, report.Embedded, report.Skipped, report.Failed, report.Duration.Round(time.Millisecond))
	}
	if err != nil {
		return fmt.Errorf("embedding run failed: %w", err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d places failed to embed", report.Failed)
	}
	return nil
}

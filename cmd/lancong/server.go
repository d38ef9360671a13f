package lancong

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundprediction/lancong/pkg/config"
	"github.com/soundprediction/lancong/pkg/metrics"
	"github.com/soundprediction/lancong/pkg/server"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Lancong HTTP server",
	Long: `Start the Lancong HTTP server.

The server provides endpoints for:
- Lexical, vector and reranked place search
- Place, infobox and package lookups
- A read-only ad-hoc query console
- Health checks and Prometheus metrics

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
	warmModels bool
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8000, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")
	serverCmd.Flags().BoolVar(&warmModels, "warm", false, "Load the embedding and cross-encoder models at startup")

	addDatabaseFlags(serverCmd)
	serverCmd.Flags().String("embedding-provider", "embedeverything", "Embedding provider (embedeverything, openai, mock)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("reranker-provider", "embedeverything", "Cross-encoder provider (embedeverything, embedding, local, mock)")
	serverCmd.Flags().Bool("no-enrichment", false, "Disable Wikidata enrichment")
	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for error records")
}

func addDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-uri", "", "Neo4j URI")
	cmd.Flags().String("db-username", "", "Neo4j username")
	cmd.Flags().String("db-password", "", "Neo4j password")
	cmd.Flags().String("db-database", "", "Neo4j database name")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	client, m, err := newClient(ctx, cfg, rt)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			rt.logger.Warn("Failed to close lancong client", "error", err)
		}
	}()

	if err := client.GetSearcher().CheckIndex(ctx); err != nil {
		rt.logger.Error("Vector index check failed; vector search will fail until `lancong embed` has run",
			"index", cfg.Search.VectorIndex,
			"error", err)
	}
	if warmModels {
		if err := m.Warm(); err != nil {
			return fmt.Errorf("failed to load models: %w", err)
		}
	}

	metrics.Register()

	srv := server.New(cfg, client, rt.logger)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		rt.logger.Info("Received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		rt.logger.Info("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serverHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = serverPort
	}
	if flags.Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	stringFlag := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	stringFlag("db-uri", &cfg.Database.URI)
	stringFlag("db-username", &cfg.Database.Username)
	stringFlag("db-password", &cfg.Database.Password)
	stringFlag("db-database", &cfg.Database.Database)
	stringFlag("embedding-provider", &cfg.Embedding.Provider)
	stringFlag("embedding-model", &cfg.Embedding.Model)
	stringFlag("reranker-provider", &cfg.Reranker.Provider)
	stringFlag("telemetry-parquet-path", &cfg.Telemetry.ParquetPath)

	if flags.Changed("no-enrichment") {
		if disabled, _ := flags.GetBool("no-enrichment"); disabled {
			cfg.Enrichment.Enabled = false
		}
	}
}

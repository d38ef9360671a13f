package embedder

import (
	"context"
	"fmt"
)

// Client generates vector embeddings for text.
type Client interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle embeds one text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector length produced by the model.
	Dimensions() int

	// Close releases model resources.
	Close() error
}

// Provider selects an embedding backend.
type Provider string

const (
	ProviderEmbedEverything Provider = "embedeverything"
	ProviderOpenAI          Provider = "openai"
	ProviderMock            Provider = "mock"
)

// Config holds embedder settings shared by all providers.
type Config struct {
	Provider   Provider
	Model      string
	Dimensions int
	BatchSize  int

	// OpenAI-compatible settings.
	APIKey  string
	BaseURL string
}

// DefaultConfig returns the local sentence-transformers configuration.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderEmbedEverything,
		Model:      "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions: 384,
		BatchSize:  32,
	}
}

// NewClient creates an embedding client for the configured provider.
func NewClient(config Config) (Client, error) {
	switch config.Provider {
	case ProviderEmbedEverything, "":
		return NewEmbedEverythingClient(&EmbedEverythingConfig{Config: &config})
	case ProviderOpenAI:
		return NewOpenAIEmbedder(config.APIKey, config), nil
	case ProviderMock:
		return NewMockEmbedder(config.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
}

// embedSingle is the shared EmbedSingle implementation.
func embedSingle(ctx context.Context, c Client, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

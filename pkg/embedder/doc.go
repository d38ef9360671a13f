// Package embedder provides text embedding clients for vector search.
//
// Place names are embedded at indexing time by the offline embedding job and
// queries are embedded at search time with the same model, so both sides of
// the vector index share one Client configuration.
//
// # Supported Providers
//
//   - embedeverything: local sentence-transformers models via go-embedeverything
//     (default sentence-transformers/all-MiniLM-L6-v2, 384 dimensions)
//   - openai: any OpenAI-compatible embeddings endpoint
//   - mock: deterministic hash vectors for tests
//
// # Usage
//
//	client := embedder.NewLazy(func() (embedder.Client, error) {
//		return embedder.NewClient(embedder.DefaultConfig())
//	}, 384)
//	vec, err := client.EmbedSingle(ctx, "Candi Borobudur")
//
// Lazy defers model loading to the first call and shares the loaded model
// with every later caller. A failed load is remembered and reported as a
// types.ConfigurationError on every call.
package embedder

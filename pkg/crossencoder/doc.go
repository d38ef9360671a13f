/*
Package crossencoder provides relevance scoring of passages against a query.

Cross-encoders process query-passage pairs together and usually rank better
than bi-encoder similarity, at higher cost. lancong uses them to rerank the
candidates returned by vector search.

# Implementations

## EmbedEverything (EmbedEverythingClient)

Runs a local cross-encoder through go-embedeverything. The default model is
cross-encoder/ms-marco-MiniLM-L-6-v2. Scores are raw model logits.

	client, err := crossencoder.NewEmbedEverythingClient(&crossencoder.EmbedEverythingConfig{
		Config: &crossencoder.Config{Model: "cross-encoder/ms-marco-MiniLM-L-6-v2"},
	})
	scores, err := client.Score(ctx, "pantai di bali", names)

## Embedding (EmbeddingRerankerClient)

Cosine similarity between query and passage embeddings from an embedder.Client.

## Local (LocalRerankerClient)

Cosine similarity of term frequency vectors. No model required.

## Mock (MockRerankerClient)

Deterministic scores for tests.

# Scores and ranking

Client.Score returns one score per passage, aligned with the input, so
duplicate passages never lose their position. Rank sorts those scores into
RankedPassage values, stable on ties.

# Concurrency

Local model runtimes are not reentrant. Every implementation is safe for
concurrent use; EmbedEverythingClient serializes calls with a mutex.
*/
package crossencoder

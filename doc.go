// Package lancong retrieves and ranks tourism points of interest.
//
// A Client composes four pipeline stages over a Neo4j place graph:
// candidate generation (lexical name match or vector similarity), optional
// cross-encoder reranking, and optional Wikidata enrichment. Each search
// strategy chains a subset of the stages.
//
// # Basic Usage
//
//	d, err := driver.NewNeo4jDriver(driver.Config{URI: "bolt://localhost:7687", Username: "neo4j", Password: "secret"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close(ctx)
//
//	emb := embedder.NewLazy(func() (embedder.Client, error) {
//		return embedder.NewClient(embedder.DefaultConfig())
//	}, 384)
//	scorer := crossencoder.NewLazy(func() (crossencoder.Client, error) {
//		return crossencoder.NewClient(crossencoder.ClientConfig{Provider: crossencoder.ProviderEmbedEverything})
//	})
//	kb := enrich.NewResolver(wikidata.NewClient(wikidata.Config{}), "id", nil, nil)
//
//	client, err := lancong.NewClient(d, emb, scorer, kb, nil, nil)
//
// # Searching
//
// Lexical search matches place names by substring and needs no models:
//
//	places, err := client.Search(ctx, "pantai", lancong.SearchOptions{})
//
// Vector search embeds the query and reads the place_embedding index.
// Reranked search retrieves initialK candidates and keeps the topK best by
// cross-encoder score:
//
//	results, err := client.SearchReranked(ctx, "air terjun", 20, 5, lancong.SearchOptions{Enrich: true})
//
// Enrichment never fails a request. Places without a knowledge-base match,
// or whose lookup failed, carry null image, wikidata_entity and
// description_id fields.
//
// # Ad-hoc Queries
//
// RunQuery executes a read-only Cypher statement after rejecting any that
// contain a mutating or administrative keyword.
package lancong

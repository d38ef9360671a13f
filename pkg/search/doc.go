// Package search provides candidate generation and reranking for places.
//
// # Candidate generation
//
// Searcher produces candidates from the graph store in two ways:
//   - Lexical: case-insensitive substring match on the place name, capped at
//     types.LexicalSearchLimit results in store order
//   - Vector: nearest neighbours of a query embedding in the place vector
//     index, best first
//
// # Reranking
//
// Reranker reorders candidates with a crossencoder.Client. Rerank scores one
// text field; RerankWithDescription blends name and description scores:
//
//	combined = (1-w)*name_score + w*description_score
//
// Sorting is stable, so equal scores keep their input order. Reranking
// never adds or removes places other than truncating to topK.
//
// A scoring failure does not fail the request. The reranker logs a warning
// and returns the candidates in input order, truncated to topK, without
// rerank scores.
//
// # Usage
//
//	searcher := search.NewSearcher(driver, search.DefaultConfig(), logger)
//	candidates, err := searcher.Vector(ctx, queryVector, 50)
//
//	reranker := search.NewReranker(crossEncoder, logger)
//	top, err := reranker.Rerank(ctx, query, candidates, types.FieldName, 10)
package search

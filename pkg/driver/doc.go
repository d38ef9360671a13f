// Package driver provides the graph database driver used by lancong.
//
// Places and packages live in Neo4j. The driver exposes a small surface:
// parameterized Cypher execution returning plain maps, vector index
// queries, and the index administration needed by the offline embedding job.
//
// # Usage
//
//	d, err := driver.NewNeo4jDriver(driver.Config{
//		URI:      "bolt://localhost:7687",
//		Username: "neo4j",
//		Password: "password",
//	})
//	rows, err := d.ExecuteQuery(ctx, driver.LexicalSearchQuery, map[string]any{"q": "candi"})
//
// # Result values
//
// Rows are returned as map[string]any. Node values are flattened to their
// property maps and nested lists and maps are converted recursively, so
// callers never see neo4j-go-driver types.
//
// # Thread Safety
//
// Neo4jDriver is safe for concurrent use. Every call opens a short-lived
// session on the shared, pooled neo4j.DriverWithContext.
//
// # Type Helpers
//
// type_helpers.go provides safe conversions from database values to Go
// types without panicking on failed type assertions.
package driver

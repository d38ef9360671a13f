package driver

import (
	"context"
)

// This file defines focused interfaces. GraphDriver is composed from them;
// consumers should depend on the smallest interface that meets their needs.

// GraphCore provides query execution and lifecycle management.
type GraphCore interface {
	// ExecuteQuery runs a read-only Cypher statement and returns every row.
	// Statements that try to write are rejected by the server.
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// ExecuteWrite runs a Cypher statement in a write transaction.
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) error

	// VerifyConnectivity checks that the database is reachable.
	VerifyConnectivity(ctx context.Context) error

	// Close releases all resources held by the driver.
	Close(ctx context.Context) error
}

// VectorIndex provides vector similarity operations over a named index.
type VectorIndex interface {
	// QueryVectorIndex returns up to k nodes nearest to vector, best first.
	QueryVectorIndex(ctx context.Context, name string, k int, vector []float32) ([]VectorMatch, error)

	// VectorIndexDimensions returns the configured dimension of the index.
	VectorIndexDimensions(ctx context.Context, name string) (int, error)

	// CreateVectorIndex creates a cosine vector index if it does not exist.
	CreateVectorIndex(ctx context.Context, name, label, property string, dimensions int) error
}

// GraphDriver is the full driver surface.
type GraphDriver interface {
	GraphCore
	VectorIndex
}

var _ GraphDriver = (*Neo4jDriver)(nil)

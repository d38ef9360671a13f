package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Neo4jDriver implements GraphDriver for Neo4j databases.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j driver instance. No connection is made
// until the first query or VerifyConnectivity.
func NewNeo4jDriver(cfg Config) (*Neo4jDriver, error) {
	defaults := DefaultConfig()
	if cfg.URI == "" {
		cfg.URI = defaults.URI
	}
	if cfg.Database == "" {
		cfg.Database = defaults.Database
	}
	if cfg.MaxConnectionLifetime <= 0 {
		cfg.MaxConnectionLifetime = defaults.MaxConnectionLifetime
	}

	client, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *config.Config) {
		c.MaxConnectionLifetime = cfg.MaxConnectionLifetime
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.ConnectionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
			c.SocketConnectTimeout = cfg.ConnectionTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	return &Neo4jDriver{
		client:   client,
		database: cfg.Database,
	}, nil
}

// ExecuteQuery runs cypher in a read transaction and returns all rows.
func (n *Neo4jDriver) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: n.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, normalizeMap(record.AsMap()))
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	rows, ok := result.([]map[string]any)
	if !ok {
		return nil, NewTypeConversionError("[]map[string]any", fmt.Sprintf("%T", result), "rows")
	}
	return rows, nil
}

// ExecuteWrite runs cypher in a write transaction, discarding any rows.
func (n *Neo4jDriver) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// QueryVectorIndex queries the named vector index with db.index.vector.queryNodes.
func (n *Neo4jDriver) QueryVectorIndex(ctx context.Context, name string, k int, vector []float32) ([]VectorMatch, error) {
	if k < 1 {
		return nil, fmt.Errorf("vector query requires k >= 1, got %d", k)
	}

	rows, err := n.ExecuteQuery(ctx, VectorSearchQuery, map[string]any{
		"index":  name,
		"k":      k,
		"vector": Float64Vector(vector),
	})
	if err != nil {
		if isIndexMissing(err) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
		}
		return nil, fmt.Errorf("vector index query failed: %w", err)
	}

	matches := make([]VectorMatch, 0, len(rows))
	for _, row := range rows {
		props, ok := AsMap(row["node"])
		if !ok {
			continue
		}
		delete(props, "embedding")
		score, _ := AsFloat64(row["score"])
		matches = append(matches, VectorMatch{Properties: props, Score: score})
	}
	return matches, nil
}

// VectorIndexDimensions reads vector.dimensions from the index options.
func (n *Neo4jDriver) VectorIndexDimensions(ctx context.Context, name string) (int, error) {
	rows, err := n.ExecuteQuery(ctx, ShowVectorIndexQuery, map[string]any{"name": name})
	if err != nil {
		return 0, fmt.Errorf("failed to read vector index %s: %w", name, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	return IndexDimensions(rows[0]["options"])
}

// CreateVectorIndex creates a cosine vector index if it does not already exist.
func (n *Neo4jDriver) CreateVectorIndex(ctx context.Context, name, label, property string, dimensions int) error {
	stmt, err := CreateVectorIndexStatement(name, label, property, dimensions)
	if err != nil {
		return err
	}
	if err := n.ExecuteWrite(ctx, stmt, nil); err != nil {
		return fmt.Errorf("failed to create vector index %s: %w", name, err)
	}
	return nil
}

// VerifyConnectivity checks the connection to the database.
func (n *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

// Close closes the driver and its connection pool.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// isIndexMissing reports whether err is Neo4j rejecting an unknown vector index.
func isIndexMissing(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.Contains(strings.ToLower(neoErr.Msg), "no such vector schema index")
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such vector schema index")
}

// normalizeValue converts driver values into plain Go values.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case dbtype.Node:
		return normalizeMap(val.Props)
	case dbtype.Relationship:
		return normalizeMap(val.Props)
	case map[string]any:
		return normalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

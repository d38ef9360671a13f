package driver

import (
	"errors"
	"time"
)

// ErrIndexNotFound is returned when a named vector index does not exist.
var ErrIndexNotFound = errors.New("vector index not found")

// Config holds connection settings for Neo4jDriver.
type Config struct {
	URI      string
	Username string
	Password string
	Database string

	MaxConnectionPoolSize int
	MaxConnectionLifetime time.Duration
	ConnectionTimeout     time.Duration
}

// DefaultConfig returns connection settings for a local Neo4j instance.
func DefaultConfig() Config {
	return Config{
		URI:                   "bolt://localhost:7687",
		Username:              "neo4j",
		Database:              "neo4j",
		MaxConnectionPoolSize: 50,
		MaxConnectionLifetime: time.Hour,
		ConnectionTimeout:     30 * time.Second,
	}
}

// VectorMatch is one row returned from a vector index query.
type VectorMatch struct {
	Properties map[string]any
	Score      float64
}

package types

// contextKey is an unexported type for context keys defined in this package.
type contextKey string

const (
	// ContextKeyRequestID carries the per-request identifier assigned by the server.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyRequestSource identifies the entry point ("server", "cli").
	ContextKeyRequestSource contextKey = "request_source"
)

// Default search bounds.
const (
	// LexicalSearchLimit caps the lexical search result count.
	LexicalSearchLimit = 20

	// DefaultDescriptionWeight is the description share in weighted reranking.
	DefaultDescriptionWeight = 0.3

	// DefaultLocale is the knowledge-base language used for enrichment.
	DefaultLocale = "id"
)

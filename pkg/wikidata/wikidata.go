package wikidata

import (
	"context"
)

// Status is the outcome of a knowledge-base lookup.
type Status int

const (
	// NotFound means the service answered and nothing matched.
	NotFound Status = iota
	// Found means an entity matched.
	Found
	// TransportError means the lookup could not be completed.
	TransportError
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Entity holds the attributes of a matched entity. Each may be nil.
type Entity struct {
	URI         *string `json:"uri"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
}

// LookupResult is the typed outcome of Resolve.
type LookupResult struct {
	Status Status
	Entity Entity
	// Err is set when Status is TransportError.
	Err error
}

// Resolver looks up a place name in a language.
type Resolver interface {
	Resolve(ctx context.Context, name, locale string) LookupResult
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, name, locale string) LookupResult

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, name, locale string) LookupResult {
	return f(ctx, name, locale)
}

func transportError(err error) LookupResult {
	return LookupResult{Status: TransportError, Err: err}
}

// Package wikidata resolves place names against the Wikidata knowledge base.
//
// Client runs a SPARQL query that searches entities by label through the
// MediaWiki EntitySearch service and returns the first match with its image
// (P18) and its description in the requested language.
//
// Every lookup returns a LookupResult instead of an error. Status tells the
// caller whether an entity was Found, the service answered with no match
// (NotFound), or the request itself failed (TransportError). Callers that
// only need attributes can treat the last two alike.
//
// BreakerResolver wraps any Resolver with a gobreaker circuit breaker so a
// failing endpoint is short-circuited instead of adding a timeout to every
// search request.
package wikidata

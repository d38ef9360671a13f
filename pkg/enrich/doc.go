// Package enrich attaches knowledge-base attributes to places.
//
// A Resolver looks each place name up through a wikidata.Resolver and
// flattens the result into types.Enrichment. Lookups never fail from the
// caller's point of view: a missing match, a transport error, or an open
// circuit breaker all produce the all-null enrichment. Results for Found and
// NotFound lookups can be kept in a Cache so repeated searches do not hit
// the SPARQL endpoint again.
package enrich

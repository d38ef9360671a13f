// Package types defines the core data types shared by the lancong packages.
//
// This package contains the fundamental types used throughout lancong:
//   - Place: a point of interest read from the graph store
//   - Package: a curated bundle of places for a city
//   - Candidate: a place scored during a single search request
//   - Enrichment: knowledge-base attributes attached to a place
//
// # Field paths
//
// Rerankers address candidate text through FieldPath, a dotted path such as
// "name" or "place.description". A direct field that the candidate does not
// carry falls back to the nested place:
//
//	text := types.FieldPath("description").Text(&candidate)
//
// # Errors
//
// The error taxonomy (ErrNotFound, ValidationError, ForbiddenError,
// ConfigurationError) lives in errors.go and is shared by every layer so the
// HTTP boundary can map outcomes without string matching.
package types

package driver

import (
	"fmt"
	"strings"
)

// The vector index and the embedding writes both target this label and
// property.
const (
	PlaceLabel        = "Place"
	EmbeddingProperty = "embedding"
)

// Cypher statements for places and packages. Every statement is
// parameterized; user input never reaches the query text.
const (
	// LexicalSearchQuery matches places by case-insensitive name substring.
	LexicalSearchQuery = `
		MATCH (p:Place)
		WHERE toLower(p.name) CONTAINS toLower($q)
		RETURN p { .id, .name, .city, .category, .description, .rating, .price, .lat, .long, .time_minutes } AS place
		LIMIT $limit`

	// VectorSearchQuery returns nearest nodes from a named vector index.
	VectorSearchQuery = `
		CALL db.index.vector.queryNodes($index, $k, $vector)
		YIELD node, score
		RETURN node, score
		ORDER BY score DESC`

	// ShowVectorIndexQuery returns the options of a named vector index.
	ShowVectorIndexQuery = `
		SHOW VECTOR INDEXES YIELD name, options
		WHERE name = $name
		RETURN options`

	// GetPlaceQuery returns the short place projection.
	GetPlaceQuery = `
		MATCH (p:Place {id: $id})
		RETURN {
			id: p.id,
			name: p.name,
			city: p.city,
			category: p.category,
			rating: p.rating,
			price: p.price,
			lat: p.lat,
			long: p.long
		} AS place`

	// GetInfoboxQuery returns the detailed place projection.
	GetInfoboxQuery = `
		MATCH (p:Place {id: $id})
		RETURN {
			id: p.id,
			name: p.name,
			description: p.description,
			category: p.category,
			city: p.city,
			price: p.price,
			rating: p.rating,
			time_minutes: p.time_minutes,
			lat: p.lat,
			long: p.long
		} AS place`

	// GetPackageQuery returns a package with its included places. A package
	// with no places yields an empty list.
	GetPackageQuery = `
		MATCH (pkg:Package {id: $id})
		OPTIONAL MATCH (pkg)-[:INCLUDES]->(p:Place)
		WITH pkg, collect(CASE WHEN p IS NULL THEN NULL ELSE {
			id: p.id,
			name: p.name,
			category: p.category,
			rating: p.rating
		} END) AS places
		RETURN {
			id: pkg.id,
			city: pkg.city,
			places: places
		} AS package`

	// ListPackagesQuery returns package summaries without places.
	ListPackagesQuery = `
		MATCH (pkg:Package)
		RETURN {
			id: pkg.id,
			city: pkg.city
		} AS package
		LIMIT $limit`

	// PlacesForEmbeddingQuery pages through places for the embedding job.
	PlacesForEmbeddingQuery = `
		MATCH (p:Place)
		WHERE p.name IS NOT NULL AND ($overwrite OR p.embedding IS NULL)
		RETURN p.id AS id, p.name AS name
		ORDER BY p.id
		SKIP $skip
		LIMIT $limit`

	// SetPlaceEmbeddingQuery stores the name embedding on a place.
	SetPlaceEmbeddingQuery = `
		MATCH (p:` + PlaceLabel + ` {id: $id})
		CALL db.create.setNodeVectorProperty(p, '` + EmbeddingProperty + `', $embedding)`
)

// CreateVectorIndexStatement builds the CREATE VECTOR INDEX statement. Index
// names, labels and property keys cannot be parameters in Cypher, so they
// are validated as bare identifiers instead.
func CreateVectorIndexStatement(name, label, property string, dimensions int) (string, error) {
	for _, ident := range []string{name, label, property} {
		if !ValidIdentifier(ident) {
			return "", fmt.Errorf("invalid cypher identifier %q", ident)
		}
	}
	if dimensions < 1 {
		return "", fmt.Errorf("vector index dimensions must be positive, got %d", dimensions)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE VECTOR INDEX %s IF NOT EXISTS ", name)
	fmt.Fprintf(&b, "FOR (n:%s) ON (n.%s) ", label, property)
	fmt.Fprintf(&b, "OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}", dimensions)
	return b.String(), nil
}

package types

import (
	"strconv"
	"strings"
)

// Place is a point-of-interest record stored as a :Place node.
type Place struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	City        *string  `json:"city,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Long        *float64 `json:"long,omitempty"`
	TimeMinutes *float64 `json:"time_minutes,omitempty"`

	// Embedding is the precomputed name vector. It is never sent to clients.
	Embedding []float32 `json:"-"`

	// Enrichment is nil until the enrichment stage has run for this place.
	*Enrichment
}

// Enrichment holds knowledge-base attributes. Absent values encode as null.
type Enrichment struct {
	Image          *string `json:"image"`
	WikidataEntity *string `json:"wikidata_entity"`
	DescriptionID  *string `json:"description_id"`
}

// EmptyEnrichment returns the all-null enrichment used when no match exists.
func EmptyEnrichment() *Enrichment {
	return &Enrichment{}
}

// IsEmpty reports whether no attribute is set.
func (e *Enrichment) IsEmpty() bool {
	return e == nil || (e.Image == nil && e.WikidataEntity == nil && e.DescriptionID == nil)
}

// Package is a curated bundle of places for a city.
type Package struct {
	ID     int64   `json:"id"`
	City   *string `json:"city"`
	Places []Place `json:"places,omitempty"`
}

// HasDescription reports whether the place carries a non-blank description.
func (p *Place) HasDescription() bool {
	return p.Description != nil && strings.TrimSpace(*p.Description) != ""
}

// Fields returns the place attributes keyed by property name. Unset optional
// attributes are omitted.
func (p *Place) Fields() map[string]any {
	fields := map[string]any{
		"id":   p.ID,
		"name": p.Name,
	}
	putString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	putFloat := func(key string, v *float64) {
		if v != nil {
			fields[key] = *v
		}
	}
	putString("city", p.City)
	putString("category", p.Category)
	putString("description", p.Description)
	putFloat("rating", p.Rating)
	putFloat("price", p.Price)
	putFloat("lat", p.Lat)
	putFloat("long", p.Long)
	putFloat("time_minutes", p.TimeMinutes)
	if p.Enrichment != nil {
		putString("image", p.Image)
		putString("wikidata_entity", p.WikidataEntity)
		putString("description_id", p.DescriptionID)
	}
	return fields
}

// PlaceFromMap builds a Place from a graph-store property map. The second
// return value is false when the map lacks a usable id.
func PlaceFromMap(m map[string]any) (Place, bool) {
	id, ok := toInt64(m["id"])
	if !ok {
		return Place{}, false
	}
	place := Place{
		ID:          id,
		City:        toStringPtr(m["city"]),
		Category:    toStringPtr(m["category"]),
		Description: toStringPtr(m["description"]),
		Rating:      toFloatPtr(m["rating"]),
		Price:       toFloatPtr(m["price"]),
		Lat:         toFloatPtr(m["lat"]),
		Long:        toFloatPtr(m["long"]),
		TimeMinutes: toFloatPtr(m["time_minutes"]),
		Embedding:   toFloat32Slice(m["embedding"]),
	}
	if name, ok := m["name"].(string); ok {
		place.Name = name
	}
	return place, true
}

// PackageFromMap builds a Package from a projected map with an optional
// "places" list.
func PackageFromMap(m map[string]any) (Package, bool) {
	id, ok := toInt64(m["id"])
	if !ok {
		return Package{}, false
	}
	pkg := Package{ID: id, City: toStringPtr(m["city"])}
	if raw, ok := m["places"].([]any); ok {
		pkg.Places = make([]Place, 0, len(raw))
		for _, item := range raw {
			pm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if place, ok := PlaceFromMap(pm); ok {
				pkg.Places = append(pkg.Places, place)
			}
		}
	}
	return pkg, true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toFloatPtr(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func toStringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func toFloat32Slice(v any) []float32 {
	switch vec := v.(type) {
	case []float32:
		return vec
	case []float64:
		out := make([]float32, len(vec))
		for i, f := range vec {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(vec))
		for _, item := range vec {
			f := toFloatPtr(item)
			if f == nil {
				return nil
			}
			out = append(out, float32(*f))
		}
		return out
	default:
		return nil
	}
}

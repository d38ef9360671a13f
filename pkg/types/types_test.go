package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlace() Place {
	return Place{
		ID:          42,
		Name:        "Candi Prambanan",
		City:        StringPtr("Yogyakarta"),
		Category:    StringPtr("Budaya"),
		Description: StringPtr("Kompleks candi Hindu"),
		Rating:      Float64Ptr(4.8),
		Price:       Float64Ptr(50000),
	}
}

func TestPlaceFromMap(t *testing.T) {
	tests := []struct {
		name   string
		input  map[string]any
		wantOK bool
		check  func(t *testing.T, p Place)
	}{
		{
			name: "full row",
			input: map[string]any{
				"id":           int64(7),
				"name":         "Monas",
				"city":         "Jakarta",
				"rating":       4.6,
				"price":        int64(20000),
				"time_minutes": 90.0,
				"embedding":    []any{0.1, 0.2},
			},
			wantOK: true,
			check: func(t *testing.T, p Place) {
				assert.Equal(t, int64(7), p.ID)
				assert.Equal(t, "Monas", p.Name)
				require.NotNil(t, p.City)
				assert.Equal(t, "Jakarta", *p.City)
				assert.Nil(t, p.Category)
				require.NotNil(t, p.Price)
				assert.Equal(t, 20000.0, *p.Price)
				assert.Equal(t, []float32{0.1, 0.2}, p.Embedding)
			},
		},
		{
			name:   "missing id",
			input:  map[string]any{"name": "Monas"},
			wantOK: false,
		},
		{
			name:   "null optional fields",
			input:  map[string]any{"id": int64(1), "name": "X", "city": nil, "rating": nil},
			wantOK: true,
			check: func(t *testing.T, p Place) {
				assert.Nil(t, p.City)
				assert.Nil(t, p.Rating)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := PlaceFromMap(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.check != nil {
				tt.check(t, p)
			}
		})
	}
}

func TestPackageFromMap(t *testing.T) {
	pkg, ok := PackageFromMap(map[string]any{
		"id":   int64(3),
		"city": "Bandung",
		"places": []any{
			map[string]any{"id": int64(1), "name": "Kawah Putih", "rating": 4.5},
			map[string]any{"name": "no id"},
		},
	})
	require.True(t, ok)
	assert.Equal(t, int64(3), pkg.ID)
	require.Len(t, pkg.Places, 1)
	assert.Equal(t, "Kawah Putih", pkg.Places[0].Name)

	empty, ok := PackageFromMap(map[string]any{"id": int64(4), "city": nil, "places": []any{}})
	require.True(t, ok)
	assert.Nil(t, empty.City)
	assert.Empty(t, empty.Places)
}

func TestPlaceJSON(t *testing.T) {
	p := samplePlace()
	p.Embedding = []float32{1, 2, 3}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "embedding")
	assert.NotContains(t, decoded, "image")
	assert.Equal(t, "Candi Prambanan", decoded["name"])

	p.Enrichment = EmptyEnrichment()
	data, err = json.Marshal(p)
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "image")
	assert.Nil(t, decoded["image"])
	assert.Nil(t, decoded["wikidata_entity"])
	assert.Nil(t, decoded["description_id"])
}

func TestCandidateJSON(t *testing.T) {
	c := Candidate{Place: samplePlace(), Score: Float64Ptr(0.91), RerankScore: Float64Ptr(2.5)}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0.91, decoded["score"])
	assert.Equal(t, 2.5, decoded["rerank_score"])
	assert.NotContains(t, decoded, "name_score")
	place, ok := decoded["place"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), place["id"])
}

func TestEnrichmentIsEmpty(t *testing.T) {
	var nilEnrichment *Enrichment
	assert.True(t, nilEnrichment.IsEmpty())
	assert.True(t, EmptyEnrichment().IsEmpty())
	assert.False(t, (&Enrichment{Image: StringPtr("x.jpg")}).IsEmpty())
}

func TestHasDescription(t *testing.T) {
	p := samplePlace()
	assert.True(t, p.HasDescription())
	p.Description = StringPtr("   ")
	assert.False(t, p.HasDescription())
	p.Description = nil
	assert.False(t, p.HasDescription())
}

func TestPlaceIDs(t *testing.T) {
	candidates := []Candidate{{Place: Place{ID: 3}}, {Place: Place{ID: 1}}}
	assert.Equal(t, []int64{3, 1}, PlaceIDs(candidates))
	assert.Empty(t, PlaceIDs(nil))
}

func TestErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		err := fmt.Errorf("get place 9: %w", ErrNotFound)
		assert.True(t, IsNotFound(err))
		assert.False(t, IsNotFound(errors.New("other")))
	})

	t.Run("validation", func(t *testing.T) {
		err := NewValidationError("top_k", "must be <= initial_k (%d)", 5)
		assert.Equal(t, "invalid top_k: must be <= initial_k (5)", err.Error())
		wrapped := fmt.Errorf("search: %w", err)
		assert.True(t, errors.Is(wrapped, &ValidationError{}))
		var ve *ValidationError
		require.ErrorAs(t, wrapped, &ve)
		assert.Equal(t, "top_k", ve.Field)
	})

	t.Run("forbidden", func(t *testing.T) {
		err := &ForbiddenError{Keyword: "delete"}
		assert.Contains(t, err.Error(), `"delete"`)
		assert.True(t, errors.Is(err, &ForbiddenError{}))
		assert.False(t, errors.Is(err, &ValidationError{}))
	})

	t.Run("configuration", func(t *testing.T) {
		cause := errors.New("model file missing")
		err := NewConfigurationError("embedder", cause)
		assert.Equal(t, "embedder configuration error: model file missing", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, errors.Is(fmt.Errorf("wrap: %w", err), &ConfigurationError{}))
	})
}

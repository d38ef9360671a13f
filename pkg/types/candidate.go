package types

// Candidate is a place scored during one search request. It is never persisted.
type Candidate struct {
	Place Place `json:"place"`

	// Score is the vector similarity; nil for lexical results.
	Score *float64 `json:"score,omitempty"`

	RerankScore      *float64 `json:"rerank_score,omitempty"`
	NameScore        *float64 `json:"name_score,omitempty"`
	DescriptionScore *float64 `json:"description_score,omitempty"`
}

// Fields returns the candidate as a nested map: the place under "place" and
// every set score at the top level.
func (c *Candidate) Fields() map[string]any {
	fields := map[string]any{"place": c.Place.Fields()}
	put := func(key string, v *float64) {
		if v != nil {
			fields[key] = *v
		}
	}
	put("score", c.Score)
	put("rerank_score", c.RerankScore)
	put("name_score", c.NameScore)
	put("description_score", c.DescriptionScore)
	return fields
}

// PlaceIDs returns the place ids in candidate order.
func PlaceIDs(candidates []Candidate) []int64 {
	ids := make([]int64, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].Place.ID
	}
	return ids
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

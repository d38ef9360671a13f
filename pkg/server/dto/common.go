package dto

import (
	"github.com/soundprediction/lancong/pkg/types"
)

// SearchParams are the query parameters shared by every search route.
type SearchParams struct {
	Query     string `form:"query"`
	Enrich    bool   `form:"enrich"`
	MaxEnrich int    `form:"max_enrich" binding:"gte=0"`
}

// VectorSearchParams adds the neighbour count for GET /search/vector.
type VectorSearchParams struct {
	SearchParams
	K int `form:"k,default=10" binding:"gte=1"`
}

// RerankSearchParams are the parameters of the rerank routes.
type RerankSearchParams struct {
	SearchParams
	InitialK          int      `form:"initial_k,default=20" binding:"gte=1"`
	TopK              int      `form:"top_k,default=5" binding:"gte=1"`
	UseDescription    bool     `form:"use_description,default=true"`
	DescriptionWeight *float64 `form:"description_weight" binding:"omitempty,gte=0,lte=1"`
}

// PackagesParams are the parameters of GET /packages.
type PackagesParams struct {
	Limit int `form:"limit,default=20" binding:"gte=1"`
}

// SearchResponse wraps the ranked results of a search route.
type SearchResponse struct {
	Query    string            `json:"query"`
	Strategy string            `json:"strategy"`
	Results  []types.Candidate `json:"results"`
	Total    int               `json:"total"`
}

// PackagesResponse lists package summaries.
type PackagesResponse struct {
	Packages []types.Package `json:"packages"`
	Total    int             `json:"total"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Cypher string `json:"cypher"`
}

// QueryResponse carries the rows of an ad-hoc statement.
type QueryResponse struct {
	Rows  []map[string]any `json:"rows"`
	Total int              `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

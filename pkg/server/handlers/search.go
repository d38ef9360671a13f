package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/lancong"
	"github.com/soundprediction/lancong/pkg/server/dto"
	"github.com/soundprediction/lancong/pkg/types"
)

// Limits are the server-side caps on search parameters.
type Limits struct {
	MaxK      int
	MaxEnrich int
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{MaxK: 100, MaxEnrich: 20}
}

// SearchHandler serves the search routes.
type SearchHandler struct {
	searcher lancong.Searcher
	limits   Limits
	logger   *slog.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(searcher lancong.Searcher, limits Limits, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{searcher: searcher, limits: limits, logger: logger}
}

// Lexical handles GET /search
func (h *SearchHandler) Lexical(c *gin.Context) {
	var params dto.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeBindError(c, err)
		return
	}
	opts, err := h.options(params, nil)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	results, err := h.searcher.Search(c.Request.Context(), params.Query, opts)
	h.respond(c, params.Query, lancong.StrategyLexical, results, err)
}

// Vector handles GET /search/vector
func (h *SearchHandler) Vector(c *gin.Context) {
	var params dto.VectorSearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.checkK("k", params.K); err != nil {
		writeError(c, h.logger, err)
		return
	}
	opts, err := h.options(params.SearchParams, nil)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	results, err := h.searcher.SearchVector(c.Request.Context(), params.Query, params.K, opts)
	h.respond(c, params.Query, lancong.StrategyVector, results, err)
}

// Rerank handles GET /search/rerank
func (h *SearchHandler) Rerank(c *gin.Context) {
	params, opts, ok := h.bindRerank(c)
	if !ok {
		return
	}

	results, err := h.searcher.SearchReranked(c.Request.Context(), params.Query, params.InitialK, params.TopK, opts)
	h.respond(c, params.Query, lancong.StrategyRerank, results, err)
}

// RerankAdvanced handles GET /search/rerank/advanced
func (h *SearchHandler) RerankAdvanced(c *gin.Context) {
	params, opts, ok := h.bindRerank(c)
	if !ok {
		return
	}

	results, err := h.searcher.SearchRerankedAdvanced(c.Request.Context(), params.Query, params.InitialK, params.TopK, params.UseDescription, opts)
	h.respond(c, params.Query, lancong.StrategyRerankAdvanced, results, err)
}

func (h *SearchHandler) bindRerank(c *gin.Context) (dto.RerankSearchParams, lancong.SearchOptions, bool) {
	var params dto.RerankSearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeBindError(c, err)
		return params, lancong.SearchOptions{}, false
	}
	if err := h.checkK("initial_k", params.InitialK); err != nil {
		writeError(c, h.logger, err)
		return params, lancong.SearchOptions{}, false
	}
	opts, err := h.options(params.SearchParams, params.DescriptionWeight)
	if err != nil {
		writeError(c, h.logger, err)
		return params, lancong.SearchOptions{}, false
	}
	return params, opts, true
}

func (h *SearchHandler) checkK(field string, k int) error {
	if h.limits.MaxK > 0 && k > h.limits.MaxK {
		return types.NewValidationError(field, "must be at most %d, got %d", h.limits.MaxK, k)
	}
	return nil
}

func (h *SearchHandler) options(params dto.SearchParams, weight *float64) (lancong.SearchOptions, error) {
	if params.MaxEnrich > h.limits.MaxEnrich {
		return lancong.SearchOptions{}, types.NewValidationError("max_enrich", "must be at most %d, got %d", h.limits.MaxEnrich, params.MaxEnrich)
	}
	return lancong.SearchOptions{
		Enrich:            params.Enrich,
		MaxEnrich:         params.MaxEnrich,
		DescriptionWeight: weight,
	}, nil
}

func (h *SearchHandler) respond(c *gin.Context, query, strategy string, results []types.Candidate, err error) {
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if results == nil {
		results = []types.Candidate{}
	}
	c.JSON(http.StatusOK, dto.SearchResponse{
		Query:    query,
		Strategy: strategy,
		Results:  results,
		Total:    len(results),
	})
}

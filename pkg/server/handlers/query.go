package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/lancong"
	"github.com/soundprediction/lancong/pkg/server/dto"
)

// QueryHandler serves the ad-hoc query console.
type QueryHandler struct {
	runner lancong.QueryRunner
	logger *slog.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(runner lancong.QueryRunner, logger *slog.Logger) *QueryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryHandler{runner: runner, logger: logger}
}

// RunQuery handles POST /query
func (h *QueryHandler) RunQuery(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	rows, err := h.runner.RunQuery(c.Request.Context(), req.Cypher)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.QueryResponse{Rows: rows, Total: len(rows)})
}

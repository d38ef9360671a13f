package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/lancong"
	"github.com/soundprediction/lancong/pkg/server/dto"
	"github.com/soundprediction/lancong/pkg/types"
)

// PlaceHandler serves place, infobox and package lookups.
type PlaceHandler struct {
	reader lancong.PlaceReader
	logger *slog.Logger
}

// NewPlaceHandler creates a place handler.
func NewPlaceHandler(reader lancong.PlaceReader, logger *slog.Logger) *PlaceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaceHandler{reader: reader, logger: logger}
}

// GetPlace handles GET /places/:id
func (h *PlaceHandler) GetPlace(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	place, err := h.reader.GetPlace(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// GetInfobox handles GET /infobox/:id
func (h *PlaceHandler) GetInfobox(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	place, err := h.reader.GetInfobox(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// GetPackage handles GET /packages/:id
func (h *PlaceHandler) GetPackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pkg, err := h.reader.GetPackage(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// GetPackagePlaces handles GET /packages/:id/places
func (h *PlaceHandler) GetPackagePlaces(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pkg, err := h.reader.GetPackage(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pkg.Places)
}

// ListPackages handles GET /packages
func (h *PlaceHandler) ListPackages(c *gin.Context) {
	var params dto.PackagesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		writeBindError(c, err)
		return
	}
	packages, err := h.reader.ListPackages(c.Request.Context(), params.Limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.PackagesResponse{Packages: packages, Total: len(packages)})
}

func pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeBindError(c, types.NewValidationError("id", "must be an integer, got %q", raw))
		return 0, false
	}
	return id, true
}

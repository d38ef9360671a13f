package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/lancong/pkg/server/dto"
	"github.com/soundprediction/lancong/pkg/types"
)

// StatusFor maps a lancong error to its HTTP status. Configuration and
// store failures are 500.
func StatusFor(err error) int {
	switch {
	case types.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, &types.ValidationError{}):
		return http.StatusBadRequest
	case errors.Is(err, &types.ForbiddenError{}):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

// writeError renders err as an ErrorResponse. Server-side failures are
// logged; their details are not sent to the client.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "Request failed",
			"path", c.FullPath(),
			"error", err)
		message = "internal server error"
	}
	c.JSON(status, dto.ErrorResponse{
		Error:   errorCode(status),
		Message: message,
		Code:    status,
	})
}

// writeBindError renders a request binding failure as 400.
func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   errorCode(http.StatusBadRequest),
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

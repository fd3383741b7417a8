package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-marketplace/internal/api/shared/errors"
	"github.com/feral-file/ff-marketplace/internal/logger"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error *apierrors.APIError `json:"error"`
}

// respondWithError maps err to a status code and sends it as a standardized error response
func respondWithError(c *gin.Context, err error, fields ...zap.Field) {
	status, apiErr := apierrors.FromError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorCtx(c.Request.Context(), err, append(fields, zap.String("path", c.Request.URL.Path))...)
	}

	c.JSON(status, errorResponse{Error: apiErr})
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: apierrors.NewBadRequestError(message, details...)})
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, err error) {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apierrors.NewValidationError(err.Error())
	}
	c.JSON(http.StatusBadRequest, errorResponse{Error: apiErr})
}

// respondUnauthorized responds with an unauthorized error
func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, errorResponse{Error: apierrors.NewUnauthorizedError("Authentication required")})
}

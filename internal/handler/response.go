package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"drainflow/internal/feed"
	"drainflow/internal/lifecycle"
	"drainflow/internal/repository"
	"drainflow/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrTripNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidOperatorID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidSiteLocation),
		errors.Is(err, service.ErrInvalidLocation):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrTripNotInRequestedState),
		errors.Is(err, service.ErrClockInversion),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, feed.ErrAlreadySubscribed),
		errors.Is(err, feed.ErrFeedClosed),
		errors.Is(err, repository.ErrNotTerminal):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrOperatorNotOnTrip),
		errors.Is(err, feed.ErrPermissionDenied):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrNoOperatorAvailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

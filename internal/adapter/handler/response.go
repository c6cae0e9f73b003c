package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/stockroom/internal/core/service"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func createdResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

func errorResponse(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}

func validationErrorResponse(c *gin.Context, errs []ValidationError) {
	errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", errs)
}

// serviceErrorResponse maps a service error onto a status code. Unknown
// errors are reported as internal without echoing their text.
func serviceErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidItem):
		errorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		errorResponse(c, http.StatusNotFound, "NOT_FOUND", "item not found", nil)
	case errors.Is(err, service.ErrConflict):
		errorResponse(c, http.StatusConflict, "CONFLICT", "item is being modified concurrently, retry", nil)
	case errors.Is(err, service.ErrStorage):
		errorResponse(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage unavailable", nil)
	default:
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Standardized APIError response
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code,omitempty"` // Application-specific error code
	Message    string      `json:"message"`
	Details    string      `json:"details,omitempty"`
	Problems   interface{} `json:"problems,omitempty"`
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// WithProblems attaches a machine readable list of problems to the error body.
func (e *APIError) WithProblems(problems interface{}) *APIError {
	e.Problems = problems
	return e
}

// RespondWithError sends a standardized JSON error response
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

// RespondValidationFailed is a helper to return a standard validation error
func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}

// RespondInternalError hides the underlying error from the client.
func RespondInternalError(c *gin.Context, message string) {
	RespondWithError(c, NewAPIError(http.StatusInternalServerError, ErrCodeInternalServerError, message, "Internal error"))
}

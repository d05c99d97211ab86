package shared

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Machine-readable error codes surfaced in the response envelope.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeAgentExists   = "AGENT_EXISTS"
	CodeReviewExists  = "REVIEW_EXISTS"
	CodeInvalidRating = "INVALID_RATING"
	CodeRateLimited   = "RATE_LIMIT_EXCEEDED"
	CodeInternal      = "INTERNAL_ERROR"
)

type APIError struct {
	Code    string `json:"error" example:"VALIDATION_ERROR"`
	Message string `json:"message" example:"Invalid request body"`
	Details any    `json:"details,omitempty" swaggertype:"object"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func (e *APIError) ToHTTP(status int) *echo.HTTPError {
	return echo.NewHTTPError(status, e)
}

func BadRequest(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusBadRequest)
}

// ValidationFailed carries every violated rule in details, not just the first.
func ValidationFailed(message string, violations []string) *echo.HTTPError {
	return NewAPIError(CodeValidation, message).WithDetails(violations).ToHTTP(http.StatusBadRequest)
}

func Unauthorized(message string) *echo.HTTPError {
	return NewAPIError(CodeUnauthorized, message).ToHTTP(http.StatusUnauthorized)
}

func Forbidden(message string) *echo.HTTPError {
	return NewAPIError(CodeForbidden, message).ToHTTP(http.StatusForbidden)
}

func NotFound(message string) *echo.HTTPError {
	return NewAPIError(CodeNotFound, message).ToHTTP(http.StatusNotFound)
}

func Conflict(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusConflict)
}

func TooManyRequests(message string, retryAfter int) *echo.HTTPError {
	return NewAPIError(CodeRateLimited, message).
		WithDetails(map[string]int{"retryAfter": retryAfter}).
		ToHTTP(http.StatusTooManyRequests)
}

func InternalError(message string) *echo.HTTPError {
	return NewAPIError(CodeInternal, message).ToHTTP(http.StatusInternalServerError)
}

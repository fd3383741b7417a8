package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/feral-file/ff-marketplace/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeForbidden        ErrorCode = "forbidden"
	ErrCodeConflict         ErrorCode = "conflict"
	ErrCodeRateLimited      ErrorCode = "rate_limited"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeUpstreamError ErrorCode = "upstream_error"
	ErrCodeNotConfigured ErrorCode = "not_configured"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewRateLimitedError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests",
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// notFound are the validation errors that name a missing resource
var notFound = []error{
	domain.ErrTokenNotMinted,
	domain.ErrNotListed,
	domain.ErrIndexOutOfRange,
}

// FromError maps a service error to its HTTP status and response body.
// The message is the error text, so a remote caller can read the reason.
func FromError(err error) (int, *APIError) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrCodeNotFound:
			return http.StatusNotFound, apiErr
		case ErrCodeUnauthorized:
			return http.StatusUnauthorized, apiErr
		case ErrCodeForbidden:
			return http.StatusForbidden, apiErr
		default:
			return http.StatusBadRequest, apiErr
		}
	}

	switch domain.KindOf(err) {
	case domain.ErrorKindValidation:
		for _, target := range notFound {
			if errors.Is(err, target) {
				return http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: err.Error()}
			}
		}
		return http.StatusBadRequest, &APIError{Code: ErrCodeValidationFailed, Message: err.Error()}
	case domain.ErrorKindAuthorization:
		return http.StatusForbidden, &APIError{Code: ErrCodeForbidden, Message: err.Error()}
	case domain.ErrorKindProtocol:
		return http.StatusConflict, &APIError{Code: ErrCodeConflict, Message: err.Error()}
	case domain.ErrorKindRemote:
		return http.StatusBadGateway, &APIError{Code: ErrCodeUpstreamError, Message: err.Error()}
	case domain.ErrorKindConfiguration:
		return http.StatusServiceUnavailable, &APIError{Code: ErrCodeNotConfigured, Message: err.Error()}
	default:
		return http.StatusInternalServerError, &APIError{Code: ErrCodeInternalError, Message: "Internal server error"}
	}
}

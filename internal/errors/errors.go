package errors

import (
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// Conflict creates a CONFLICT error
func Conflict(resource string) *APIError {
	return &APIError{
		Code:    ErrConflict,
		Message: fmt.Sprintf("%s already exists or is in an invalid state", resource),
		Status:  http.StatusConflict,
	}
}

// ValidationError creates a VALIDATION_ERROR
func ValidationError(field, message string) *APIError {
	return &APIError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
		Status:  http.StatusUnprocessableEntity,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{
		Code:    ErrBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// AlreadyExists creates an ALREADY_EXISTS error
func AlreadyExists(resource string) *APIError {
	return &APIError{
		Code:    ErrAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
		Status:  http.StatusConflict,
	}
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return &APIError{
		Code:    ErrServiceUnavail,
		Message: fmt.Sprintf("%s is temporarily unavailable", service),
		Status:  http.StatusServiceUnavailable,
	}
}

// Timeout creates a TIMEOUT error
func Timeout(operation string) *APIError {
	return &APIError{
		Code:    ErrTimeout,
		Message: fmt.Sprintf("%s timed out", operation),
		Status:  http.StatusGatewayTimeout,
	}
}

// FileRejected creates a FILE_REJECTED error for a single offending file
func FileRejected(filename, reason string) *APIError {
	return &APIError{
		Code:    ErrFileRejected,
		Message: reason,
		Field:   filename,
		Status:  ErrFileRejected.StatusCode(),
	}
}

// SlideLimit creates a SLIDE_LIMIT error
func SlideLimit(max int) *APIError {
	return &APIError{
		Code:    ErrSlideLimit,
		Message: fmt.Sprintf("a post can have at most %d slides", max),
		Status:  ErrSlideLimit.StatusCode(),
	}
}

// MissingAltText creates a MISSING_ALT_TEXT error naming the count of affected slides
func MissingAltText(count int) *APIError {
	noun := "slides are"
	if count == 1 {
		noun = "slide is"
	}
	return &APIError{
		Code:    ErrMissingAltText,
		Message: fmt.Sprintf("%d %s missing alt text", count, noun),
		Status:  ErrMissingAltText.StatusCode(),
	}
}

// MissingCaption creates a MISSING_CAPTION error
func MissingCaption() *APIError {
	return &APIError{
		Code:    ErrMissingCaption,
		Message: "the first slide needs a caption before publishing",
		Status:  ErrMissingCaption.StatusCode(),
	}
}

// EmptyPost creates an EMPTY_POST error
func EmptyPost() *APIError {
	return &APIError{
		Code:    ErrEmptyPost,
		Message: "add at least one slide before publishing",
		Status:  ErrEmptyPost.StatusCode(),
	}
}

// TagLimit creates a TAG_LIMIT error
func TagLimit(kind string, max int) *APIError {
	return &APIError{
		Code:    ErrTagLimit,
		Message: fmt.Sprintf("at most %d %s allowed", max, kind),
		Field:   kind,
		Status:  ErrTagLimit.StatusCode(),
	}
}

// CropDisabled creates a CROP_DISABLED error
func CropDisabled() *APIError {
	return &APIError{
		Code:    ErrCropDisabled,
		Message: "cropping is only available in cover mode",
		Status:  ErrCropDisabled.StatusCode(),
	}
}

// Submission creates a submission failure with a category-specific code
func Submission(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  code.StatusCode(),
	}
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrValidation     ErrorCode = "VALIDATION_ERROR"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
	ErrTimeout        ErrorCode = "TIMEOUT"

	// Composer validation codes
	ErrFileRejected   ErrorCode = "FILE_REJECTED"
	ErrSlideLimit     ErrorCode = "SLIDE_LIMIT"
	ErrMissingCaption ErrorCode = "MISSING_CAPTION"
	ErrMissingAltText ErrorCode = "MISSING_ALT_TEXT"
	ErrEmptyPost      ErrorCode = "EMPTY_POST"
	ErrTagLimit       ErrorCode = "TAG_LIMIT"
	ErrCropDisabled   ErrorCode = "CROP_DISABLED"

	// Submission failure categories
	ErrSubmitStorage ErrorCode = "SUBMIT_STORAGE"
	ErrSubmitNetwork ErrorCode = "SUBMIT_NETWORK"
	ErrSubmitSize    ErrorCode = "SUBMIT_SIZE"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrNotFound:       http.StatusNotFound,
	ErrConflict:       http.StatusConflict,
	ErrValidation:     http.StatusUnprocessableEntity,
	ErrBadRequest:     http.StatusBadRequest,
	ErrInternalError:  http.StatusInternalServerError,
	ErrAlreadyExists:  http.StatusConflict,
	ErrServiceUnavail: http.StatusServiceUnavailable,
	ErrTimeout:        http.StatusGatewayTimeout,

	ErrFileRejected:   http.StatusUnprocessableEntity,
	ErrSlideLimit:     http.StatusUnprocessableEntity,
	ErrMissingCaption: http.StatusUnprocessableEntity,
	ErrMissingAltText: http.StatusUnprocessableEntity,
	ErrEmptyPost:      http.StatusUnprocessableEntity,
	ErrTagLimit:       http.StatusUnprocessableEntity,
	ErrCropDisabled:   http.StatusConflict,

	ErrSubmitStorage: http.StatusBadGateway,
	ErrSubmitNetwork: http.StatusBadGateway,
	ErrSubmitSize:    http.StatusRequestEntityTooLarge,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}

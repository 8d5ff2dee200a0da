// Package errors provides coded application errors.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is an application error code.
type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"

	// planner
	CodeProfileNotFound  Code = "PROFILE_NOT_FOUND"
	CodeUnknownMechanism Code = "UNKNOWN_MECHANISM"
	CodeInvalidTimeRange Code = "INVALID_TIME_RANGE"

	// data
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeStorageError   Code = "STORAGE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError is an error carrying a code and optional details.
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails sets the details text.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithField attaches a structured field.
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New creates an AppError.
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap creates an AppError around err.
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidTimeRange, CodeUnknownMechanism:
		return http.StatusBadRequest
	case CodeNotFound, CodeProfileNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode returns the code of err, or CodeUnknown.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus returns the HTTP status for err.
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// InvalidInput reports an invalid field.
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("invalid field '%s': %s", field, reason))
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' not found", resource, id))
}

// ProfileNotFound reports a missing constraint profile.
func ProfileNotFound(name string) *AppError {
	return New(CodeProfileNotFound, fmt.Sprintf("constraint profile '%s' not found", name))
}

// UnknownMechanism reports an unregistered allocation mechanism.
func UnknownMechanism(name string) *AppError {
	return New(CodeUnknownMechanism, fmt.Sprintf("unknown mechanism '%s'", name))
}

// Unauthorized reports a missing or rejected credential.
func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

// Forbidden reports a credential lacking a scope.
func Forbidden(scope string) *AppError {
	return New(CodeForbidden, fmt.Sprintf("scope '%s' required", scope))
}

// ValidationErrors collects field validation failures.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError is a single field failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add appends a failure.
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether any failure was recorded.
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError converts the collection into a VALIDATION_FAILED AppError.
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeValidationFail, "validation failed")
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}

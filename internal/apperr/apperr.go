// Package apperr defines the error type shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeValidation       Code = "VALIDATION_FAILED"
	CodeEmailTaken       Code = "EMAIL_TAKEN"
	CodeAlreadyPro       Code = "ALREADY_PRO"
	CodeDuplicate        Code = "DUPLICATE_REQUEST"
	CodeInvalidStatus    Code = "INVALID_STATUS"
	CodeTooManyFiles     Code = "TOO_MANY_FILES"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeBadCredentials   Code = "INVALID_CREDENTIALS"
	CodeInvalidRefresh   Code = "INVALID_REFRESH_TOKEN"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  Code = "PAYLOAD_TOO_LARGE"
	CodeUpgradeRequired  Code = "UPGRADE_REQUIRED"
	CodeUploadFailed     Code = "UPLOAD_FAILED"
	CodeUpstream         Code = "UPSTREAM_FAILED"
	CodeInternal         Code = "INTERNAL"
)

// HTTPStatus maps a code to its response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeEmailTaken, CodeAlreadyPro, CodeDuplicate, CodeInvalidStatus, CodeTooManyFiles:
		return http.StatusBadRequest
	case CodeUnauthenticated, CodeBadCredentials:
		return http.StatusUnauthorized
	case CodeInvalidRefresh, CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeUpgradeRequired:
		return http.StatusUpgradeRequired
	default:
		return http.StatusInternalServerError
	}
}

// FieldErrors collects per-field validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

type Error struct {
	Code    Code           // Machine-readable error code
	Message string         // Client-facing message
	Details map[string]any // Optional structured details
	Cause   error          // Underlying error, logged but never rendered
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Validation builds a VALIDATION_FAILED error carrying field messages.
func Validation(message string, fields FieldErrors) *Error {
	e := &Error{Code: CodeValidation, Message: message}
	if len(fields) > 0 {
		e.Details = map[string]any{"fields": fields}
	}
	return e
}

// Internal wraps an unexpected failure behind a generic message.
func Internal(cause error) *Error {
	return Wrap(CodeInternal, "Internal server error", cause)
}

// As extracts an *Error from err. Errors that are not *Error become INTERNAL.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// CodeOf returns the code of err, or "" when err is nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return As(err).Code
}

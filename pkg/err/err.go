package errprocess

import (
	"errors"
	"fmt"
	"net/http"
)

// Code error category returned to the caller
type Code string

const (
	// CodeValidation bad input, e.g. empty message content
	CodeValidation Code = "VALIDATION"
	// CodeNotFound unknown message / user id
	CodeNotFound Code = "NOT_FOUND"
	// CodeUpstream asset store or durable store failure
	CodeUpstream Code = "UPSTREAM"
	// CodeUnauthenticated missing or invalid credential
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeAlreadyExists duplicate resource
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	// CodeInternal anything not classified
	CodeInternal Code = "INTERNAL"
)

// AppError classified error, handler 層依 Code 轉成 HTTP status
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// New create AppError
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

// Wrap create AppError with cause
func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Validation ValidationError
func Validation(msg string) error { return New(CodeValidation, msg) }

// NotFound NotFoundError
func NotFound(msg string) error { return New(CodeNotFound, msg) }

// Upstream UpstreamError, asset store / durable store failure
func Upstream(msg string, cause error) error { return Wrap(CodeUpstream, msg, cause) }

// Unauthorized UnauthenticatedError
func Unauthorized(msg string) error { return New(CodeUnauthenticated, msg) }

// AlreadyExists AlreadyExistsError
func AlreadyExists(msg string) error { return New(CodeAlreadyExists, msg) }

// CodeOf extract code, unclassified errors are INTERNAL
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Message error text safe to show the caller
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// IsValidation check ValidationError
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNotFound check NotFoundError
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsUpstream check UpstreamError
func IsUpstream(err error) bool { return CodeOf(err) == CodeUpstream }

// HTTPStatus map error code to http status
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUpstream:
		return http.StatusBadGateway
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a failure. CodeDependency means the shop API answered with a failure it owns
// (5xx, unreadable body); CodeTransport means the request never got an answer.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeTransport    Code = "TRANSPORT_ERROR"
)

// Metadata describes how a caller of the client should treat an error code. ExitCode is the process
// exit status the CLI uses for it.
type Metadata struct {
	Retryable      bool
	Summary        string
	DetailsAllowed bool
	ExitCode       int
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {Summary: "request rejected as invalid", DetailsAllowed: true, ExitCode: 2},
	CodeUnauthorized: {Summary: "login required", ExitCode: 3},
	CodeForbidden:    {Summary: "access denied", ExitCode: 3},
	CodeNotFound:     {Summary: "not found", DetailsAllowed: true, ExitCode: 4},
	CodeConflict:     {Summary: "conflicts with the current cart", DetailsAllowed: true, ExitCode: 5},
	CodeRateLimit:    {Summary: "too many requests", Retryable: true, ExitCode: 6},
	CodeInternal:     {Summary: "internal client error", ExitCode: 1},
	CodeDependency:   {Summary: "shop api unavailable", Retryable: true, DetailsAllowed: true, ExitCode: 7},
	CodeTransport:    {Summary: "shop api unreachable", Retryable: true, ExitCode: 7},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// FromHTTPStatus maps a response status returned by a remote API onto an error code.
// Unknown failures are treated as dependency errors since the remote side owns them.
func FromHTTPStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusGone:
		return CodeNotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return CodeTransport
	}
	return CodeDependency
}

// ExitCode returns the CLI exit status for err. Untyped errors exit with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if typed := As(err); typed != nil {
		return MetadataFor(typed.Code()).ExitCode
	}
	return 1
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

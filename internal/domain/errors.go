package domain

import "fmt"

// Machine-readable error codes surfaced to API callers.
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeUpstream     = "upstream_unavailable"
	CodeInternal     = "internal"
)

// Error carries a machine code alongside a human message. The web layer
// maps codes to HTTP statuses; everything below it only sees codes.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NewInvalidInput(message string, err error) *Error {
	return &Error{Code: CodeInvalidInput, Message: message, Err: err}
}

func NewNotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func NewUpstreamError(message string, err error) *Error {
	return &Error{Code: CodeUpstream, Message: message, Err: err}
}

func NewInternalError(message string, err error) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: err}
}

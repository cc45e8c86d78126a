package completion

import "errors"

// Code classifies a completion failure for transport mapping.
type Code string

const (
	CodeNotFound   Code = "not_found"
	CodeForbidden  Code = "forbidden"
	CodeConflict   Code = "conflict"
	CodeValidation Code = "validation"
	CodeUpstream   Code = "upstream"
)

// Error is a domain failure with a user-readable message.
type Error struct {
	Code    Code
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

func notFound(msg string) *Error  { return &Error{Code: CodeNotFound, Message: msg} }
func forbidden(msg string) *Error { return &Error{Code: CodeForbidden, Message: msg} }
func conflict(msg string) *Error  { return &Error{Code: CodeConflict, Message: msg} }

func upstream(msg string, err error) *Error {
	return &Error{Code: CodeUpstream, Message: msg, err: err}
}

// CodeOf extracts the domain code from an error chain, or "" if the error is
// not a completion error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf extracts the user-readable message, falling back to a generic one.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong"
}

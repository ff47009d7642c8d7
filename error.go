package frmr

import (
	"errors"
	"fmt"
)

// Application error codes. The values double as the wire codes returned to
// tool callers.
const (
	ENOTFOUND    = "NOT_FOUND"
	EBADREQUEST  = "BAD_REQUEST"
	ENOTREADY    = "INDEX_NOT_READY"
	EACQUISITION = "REPO_ACQUISITION_FAILED"
	EIO          = "IO_ERROR"
	EPARSE       = "PARSE_ERROR"
)

// Error represents an application-specific error. Hint optionally tells the
// caller how to recover.
type Error struct {
	Code    string
	Message string
	Hint    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("frmr error: code=%s message=%s", e.Code, e.Message)
}

// WithHint sets the recovery hint and returns the error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EIO.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EIO
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors return their own text.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ErrorHint unwraps an application error and returns its hint, if any.
func ErrorHint(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}

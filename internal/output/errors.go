package output

import (
	"errors"
	"fmt"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Retryable  bool
	// ResultCode is the server's envelope result code (e.g. "F-400") for
	// business failures.
	ResultCode string
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, identifier),
		HTTPStatus: 404,
	}
}

func ErrAuth(msg string) *Error {
	return &Error{
		Code:       CodeAuth,
		Message:    msg,
		Hint:       "Run: mindtalk auth login",
		HTTPStatus: 401,
	}
}

const msgSessionExpired = "Session expired"

// ErrAuthExpired reports a 401 that one refresh attempt could not resolve.
// By the time it is returned the credential store has been cleared.
func ErrAuthExpired(cause error) *Error {
	return &Error{
		Code:       CodeAuth,
		Message:    msgSessionExpired,
		Hint:       "Run: mindtalk auth login",
		HTTPStatus: 401,
		Cause:      cause,
	}
}

func ErrForbidden(msg string) *Error {
	return &Error{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: 403,
	}
}

func ErrRateLimit(retryAfter int) *Error {
	hint := "Try again later"
	if retryAfter > 0 {
		hint = fmt.Sprintf("Try again in %d seconds", retryAfter)
	}
	return &Error{
		Code:       CodeRateLimit,
		Message:    "Rate limited",
		Hint:       hint,
		HTTPStatus: 429,
		Retryable:  true,
	}
}

func ErrNetwork(cause error) *Error {
	return &Error{
		Code:      CodeNetwork,
		Message:   "Network error",
		Hint:      cause.Error(),
		Retryable: true,
		Cause:     cause,
	}
}

func ErrAPI(status int, msg string) *Error {
	return &Error{
		Code:       CodeAPI,
		Message:    msg,
		HTTPStatus: status,
	}
}

// ErrBusiness wraps a failure envelope returned by the server.
func ErrBusiness(resultCode, msg string) *Error {
	if msg == "" {
		msg = "Request rejected (" + resultCode + ")"
	}
	return &Error{
		Code:       CodeBusiness,
		Message:    msg,
		ResultCode: resultCode,
		HTTPStatus: 200,
	}
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeAPI,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsBusiness reports whether err is a server business failure.
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeBusiness
}

// IsAuth reports whether err means the caller is not (or no longer) authenticated.
func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeAuth
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeNetwork
}

// IsAuthExpired reports whether err is the terminal session-expired error.
func IsAuthExpired(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeAuth && e.Message == msgSessionExpired
}

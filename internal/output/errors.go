package output

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a structured error with code, message, and optional hint.
// It is the single normalized shape for every failure surfaced by the
// API client, whether it came from the transport, the server, or the
// token refresh channel.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Detail     json.RawMessage // machine-readable server payload, if any
	Retryable  bool
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
		Hint:       "Run: folio auth login",
		HTTPStatus: 401,
	}
}

// ErrSessionExpired marks the hard end of an authenticated session: the
// refresh call itself failed and the credential has been cleared.
func ErrSessionExpired(cause error) *Error {
	return &Error{
		Code:       CodeAuth,
		Message:    "Session expired",
		Hint:       "Run: folio auth login",
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

// Normalize converts a non-2xx response body into an *Error. The server's
// detail payload, when parseable, is preserved verbatim on Detail and its
// message field becomes the error message; otherwise a generic per-status
// message is used. This is the one path both the dispatcher and the refresh
// channel run their failures through, so callers render every failure the
// same way regardless of origin.
func Normalize(status int, body []byte) *Error {
	msg := ""
	var detail json.RawMessage

	var payload struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		detail = json.RawMessage(body)
		switch {
		case payload.Detail != "":
			msg = payload.Detail
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}

	var e *Error
	switch status {
	case 401:
		e = ErrAuth(orDefault(msg, "Authentication required"))
	case 403:
		e = ErrForbidden(orDefault(msg, "Access denied"))
	case 404:
		e = &Error{Code: CodeNotFound, Message: orDefault(msg, "Resource not found"), HTTPStatus: 404}
	case 429:
		e = ErrRateLimit(0)
		if msg != "" {
			e.Message = msg
		}
	default:
		e = ErrAPI(status, orDefault(msg, fmt.Sprintf("Request failed (HTTP %d)", status)))
	}
	e.Detail = detail
	return e
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
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

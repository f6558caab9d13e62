package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MissingStartLine indicates the message has no CRLF-terminated first line
	MissingStartLine ErrorCode = "MISSING_START_LINE"
	// MalformedStartLine indicates a start-line with the wrong shape or token count
	MalformedStartLine ErrorCode = "MALFORMED_START_LINE"
	// UnknownMethod indicates a request method outside the supported set
	UnknownMethod ErrorCode = "UNKNOWN_METHOD"
	// UnsupportedVersion indicates a protocol version other than HTTP/1.1
	UnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"
	// UnknownStatus indicates a status code outside the supported set
	UnknownStatus ErrorCode = "UNKNOWN_STATUS"
	// MalformedHeader indicates a header line without ": "
	MalformedHeader ErrorCode = "MALFORMED_HEADER"
	// UnterminatedHeaders indicates a header block without the blank line
	UnterminatedHeaders ErrorCode = "UNTERMINATED_HEADERS"
	// InvalidContentLength indicates a Content-Length that is not a non-negative integer
	InvalidContentLength ErrorCode = "INVALID_CONTENT_LENGTH"
	// TruncatedBody indicates fewer body bytes than Content-Length declared
	TruncatedBody ErrorCode = "TRUNCATED_BODY"
	// ConnectionClosed indicates the peer closed before sending anything
	ConnectionClosed ErrorCode = "CONNECTION_CLOSED"
	// RequestTooLarge indicates the request exceeded the configured byte limit
	RequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"
	// DuplicateRoute indicates a method+pattern pair that is already registered
	DuplicateRoute ErrorCode = "DUPLICATE_ROUTE"
	// InvalidPattern indicates a route pattern the router cannot compile
	InvalidPattern ErrorCode = "INVALID_PATTERN"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrMissingStartLine     = &Error{Code: MissingStartLine}
	ErrMalformedStartLine   = &Error{Code: MalformedStartLine}
	ErrUnknownMethod        = &Error{Code: UnknownMethod}
	ErrUnsupportedVersion   = &Error{Code: UnsupportedVersion}
	ErrUnknownStatus        = &Error{Code: UnknownStatus}
	ErrMalformedHeader      = &Error{Code: MalformedHeader}
	ErrUnterminatedHeaders  = &Error{Code: UnterminatedHeaders}
	ErrInvalidContentLength = &Error{Code: InvalidContentLength}
	ErrTruncatedBody        = &Error{Code: TruncatedBody}
	ErrConnectionClosed     = &Error{Code: ConnectionClosed}
	ErrRequestTooLarge      = &Error{Code: RequestTooLarge}
	ErrDuplicateRoute       = &Error{Code: DuplicateRoute}
	ErrInvalidPattern       = &Error{Code: InvalidPattern}
)

// Error represents a wirehttp error with a stable code and an optional cause
type Error struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new Error
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new Error with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of e carrying details. e itself is not modified,
// so it is safe to call on the exported sentinels.
func (e *Error) WithDetails(details interface{}) *Error {
	out := *e
	out.Details = details
	return &out
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsParseError reports whether err is one of the codes produced while parsing a message
func IsParseError(err error) bool {
	switch CodeOf(err) {
	case MissingStartLine, MalformedStartLine, UnknownMethod, UnsupportedVersion,
		UnknownStatus, MalformedHeader, UnterminatedHeaders, InvalidContentLength, TruncatedBody:
		return true
	}
	return false
}

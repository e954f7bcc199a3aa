// Package errors provides error types and handling for the flag crawler.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents connection-level failures (dial, TLS, socket I/O).
	Network
	// Protocol represents malformed or unframeable HTTP responses.
	Protocol
	// Parse represents extraction failures (status line, headers, markup).
	Parse
	// Auth represents login handshake failures.
	Auth
	// Overloaded represents a 503 transient-overload response.
	Overloaded
	// UnexpectedStatus represents a status code outside the handled set.
	UnexpectedStatus
	// Cancelled represents context cancellation.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Network:
		return "network"
	case Protocol:
		return "protocol"
	case Parse:
		return "parse"
	case Auth:
		return "auth"
	case Overloaded:
		return "overloaded"
	case UnexpectedStatus:
		return "unexpected_status"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsRetryable returns whether errors of this type should be retried.
// Only a 503 overload response is retryable: connection and TLS failures
// are fatal, and every other status outside the handled set aborts the crawl.
func (t ErrorType) IsRetryable() bool {
	return t == Overloaded
}

// CrawlError represents a categorized crawl error.
type CrawlError struct {
	Type       ErrorType
	URL        string
	Operation  string
	Message    string
	Cause      error
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *CrawlError) Is(target error) bool {
	t, ok := target.(*CrawlError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new CrawlError.
func New(errType ErrorType, url, operation, message string, cause error) *CrawlError {
	return &CrawlError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: errType.IsRetryable(),
	}
}

// NewNetworkError creates a connection-level error. Never retried.
func NewNetworkError(url, operation string, cause error) *CrawlError {
	return New(Network, url, operation, "network failure", cause)
}

// NewProtocolError creates a response-framing error.
func NewProtocolError(url, operation string, cause error) *CrawlError {
	return New(Protocol, url, operation, "malformed response", cause)
}

// NewParseError creates an extraction error.
func NewParseError(url, operation string, cause error) *CrawlError {
	return New(Parse, url, operation, "parsing failed", cause)
}

// NewAuthError creates a login handshake error.
func NewAuthError(url, message string) *CrawlError {
	return New(Auth, url, "login", message, nil)
}

// NewOverloadedError creates a 503 transient-overload error.
func NewOverloadedError(url string) *CrawlError {
	err := New(Overloaded, url, "request", "server overloaded", nil)
	err.StatusCode = 503
	return err
}

// NewUnexpectedStatusError creates a fatal error for a status code outside
// the handled set {200, 302, 403, 404, 503}.
func NewUnexpectedStatusError(url string, statusCode int) *CrawlError {
	err := New(UnexpectedStatus, url, "request",
		fmt.Sprintf("unexpected status code %d", statusCode), nil)
	err.StatusCode = statusCode
	return err
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string) *CrawlError {
	return New(Cancelled, url, operation, "operation cancelled", nil)
}

// NewStatusLineError marks an unparseable status line. The -1 sentinel from
// the parser is never a valid continuation state, so this is fatal.
func NewStatusLineError(url string) *CrawlError {
	return New(Protocol, url, "status_line", "no parseable status line in response", nil)
}

// IsRetryable checks if an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Retryable
	}
	return false
}

// IsOverloaded checks if an error is a 503 overload response.
func IsOverloaded(err error) bool {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Type == Overloaded
	}
	return false
}

// GetStatusCode extracts the status code from an error.
func GetStatusCode(err error) int {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.StatusCode
	}
	return 0
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Type
	}
	return Unknown
}

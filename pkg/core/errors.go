package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for handling and retry logic.
const (
	// ErrorTypeExchange indicates a generic exchange-reported error with
	// no more specific classification.
	ErrorTypeExchange ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates the request rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid or missing credentials.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side failure.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates the account lacks the balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
	// ErrorTypeNotSupported indicates the operation or parameter
	// combination is not offered by the exchange.
	ErrorTypeNotSupported
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"EXCHANGE",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
		"NOT_SUPPORTED",
	}[t]
}

// ErrorTypeFromStatus maps an HTTP status code to the error category used
// when the response body carries no more specific signal.
func ErrorTypeFromStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorTypeAuthentication
	case status == http.StatusNotFound:
		return ErrorTypeNotFound
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case status == http.StatusBadRequest:
		return ErrorTypeBadRequest
	case status >= http.StatusInternalServerError:
		return ErrorTypeServerError
	default:
		return ErrorTypeExchange
	}
}

// Sentinel errors for conditions detected before a request is sent.
var (
	// ErrMarketsNotLoaded is returned when an operation needs symbol
	// resolution before LoadMarkets has populated the market table.
	ErrMarketsNotLoaded = errors.New("markets not loaded")
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
)

// ExchangeError represents a structured error from an exchange adapter.
// It preserves the upstream response so callers can inspect exactly what
// the exchange said.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, zero for pre-flight errors.
	StatusCode int `json:"status_code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Raw contains the verbatim response body, when one was received.
	Raw string `json:"raw,omitempty"`
	// Exchange identifies which exchange produced this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface. It returns a formatted string
// with exchange name, error type, status code, and message.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("[%s] %s (%d): %s", e.Exchange, e.Type, e.StatusCode, e.Message)
}

// WithRaw attaches the verbatim response body and returns the error.
func (e *ExchangeError) WithRaw(raw string) *ExchangeError {
	e.Raw = raw
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// IsErrorType reports whether err is or wraps an ExchangeError of the
// given category.
func IsErrorType(err error, t ErrorType) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsNetworkError returns true for network connectivity failures.
// Network errors are typically retryable.
func IsNetworkError(err error) bool {
	return IsErrorType(err, ErrorTypeNetwork)
}

// IsTimeoutError returns true for deadline failures.
// Timeout errors are typically retryable with a longer deadline.
func IsTimeoutError(err error) bool {
	return IsErrorType(err, ErrorTypeTimeout)
}

// IsRateLimitError returns true for rate limit violations.
// Rate limit errors should be retried after a delay.
func IsRateLimitError(err error) bool {
	return IsErrorType(err, ErrorTypeRateLimit)
}

// IsAuthenticationError returns true for credential failures.
// These require configuration changes and are not retryable.
func IsAuthenticationError(err error) bool {
	return IsErrorType(err, ErrorTypeAuthentication)
}

// IsInsufficientFunds returns true when the account lacks the balance
// required for the requested order or transfer.
func IsInsufficientFunds(err error) bool {
	return IsErrorType(err, ErrorTypeInsufficientFunds)
}

// IsInvalidOrder returns true when the order was rejected for violating
// the exchange's price or size rules.
func IsInvalidOrder(err error) bool {
	return IsErrorType(err, ErrorTypeInvalidOrder)
}

// IsNotSupported returns true when the exchange does not offer the
// requested operation or parameter combination.
func IsNotSupported(err error) bool {
	return IsErrorType(err, ErrorTypeNotSupported)
}

// IsNotFound returns true when the requested resource does not exist.
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeRequest     ErrorType = "request"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeCache       ErrorType = "cache"
	ErrorTypeEmbedding   ErrorType = "embedding"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is the typed error returned by every portal, cache and embedding
// operation. Code carries the HTTP status when one was received.
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap creates a typed error around cause. A nil cause yields nil.
func Wrap(t ErrorType, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Type: t, Op: op, Err: cause}
}

// Authentication reports rejected credentials or a sign-in page without
// an anti-forgery token.
func Authentication(op, message string) *Error {
	return &Error{Type: ErrorTypeAuth, Op: op, Message: message}
}

// Request reports a non-success HTTP status. 429 and 5xx are classified
// separately so the retry policy can tell them apart.
func Request(op string, statusCode int) *Error {
	t := ErrorTypeRequest
	switch {
	case statusCode == 429:
		t = ErrorTypeRateLimit
	case statusCode >= 500:
		t = ErrorTypeServerError
	}
	return &Error{
		Type:    t,
		Op:      op,
		Message: fmt.Sprintf("unexpected status code: %d", statusCode),
		Code:    statusCode,
	}
}

// Embedding wraps any failure while materializing a single photo.
func Embedding(photoID int64, cause error) error {
	return &Error{
		Type: ErrorTypeEmbedding,
		Op:   fmt.Sprintf("embed photo %d", photoID),
		Err:  cause,
	}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether any *Error in err's chain has type t. Every error
// built from a non-success status is a request error, including the
// rate_limit and server_error ones.
func IsType(err error, t ErrorType) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t || (t == ErrorTypeRequest && e.Code != 0) {
			return true
		}
		err = e.Err
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

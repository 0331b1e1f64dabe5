package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrClosed = errors.New("client: closed")

// Category groups failures by what the caller can do about them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNetwork
	CategoryBadRequest
	CategoryUnprocessable
	CategoryServer
	CategoryForbidden
	CategoryNotFound
)

func (c Category) String() string {
	switch c {
	case CategoryNetwork:
		return "network"
	case CategoryBadRequest:
		return "bad_request"
	case CategoryUnprocessable:
		return "unprocessable"
	case CategoryServer:
		return "server"
	case CategoryForbidden:
		return "forbidden"
	case CategoryNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

var friendly = map[Category]string{
	CategoryNetwork:       "Unable to connect to the server. Please check your internet connection and try again.",
	CategoryBadRequest:    "Please check your input and try again.",
	CategoryUnprocessable: "Some of the information provided is invalid. Please review it and try again.",
	CategoryServer:        "Something went wrong on our end. Please try again in a moment.",
	CategoryForbidden:     "You do not have permission to perform this action.",
	CategoryNotFound:      "The requested information could not be found.",
	CategoryUnknown:       "An unexpected error occurred. Please try again.",
}

// FriendlyMessage is the only error text meant for end users.
func FriendlyMessage(c Category) string {
	if m, ok := friendly[c]; ok {
		return m
	}
	return friendly[CategoryUnknown]
}

// CategoryForStatus maps a non-2xx HTTP status to a category.
func CategoryForStatus(status int) Category {
	switch {
	case status == http.StatusBadRequest:
		return CategoryBadRequest
	case status == http.StatusUnprocessableEntity:
		return CategoryUnprocessable
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status >= 500:
		return CategoryServer
	default:
		return CategoryUnknown
	}
}

// Retryable is false for failures caused by the request itself.
func Retryable(c Category) bool {
	switch c {
	case CategoryBadRequest, CategoryUnprocessable, CategoryForbidden, CategoryNotFound:
		return false
	default:
		return true
	}
}

// ShouldRetry decides whether attempt (1-based) may be followed by another.
func ShouldRetry(c Category, attempt, maxAttempts int) bool {
	return attempt < maxAttempts && Retryable(c)
}

// Backoff is the wait after attempt (1-based): base * 2^(attempt-1).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

// Error is returned by every Client operation.
type Error struct {
	Op       Operation
	Category Category
	Status   int                 // 0 when no response was received
	Fields   map[string][]string // field errors from a validation problem
	Err      error

	// delivered is set when the server answered 2xx but the body was unusable.
	// The request took effect, so repeating it could duplicate a write.
	delivered bool
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("client: %s: %s (%d): %v", e.Op, e.Category, e.Status, e.Err)
	}
	return fmt.Sprintf("client: %s: %s: %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Delivered reports whether the server accepted the request even though the
// call failed. Such errors are never retried.
func (e *Error) Delivered() bool { return e.delivered }

// Message is the user-facing sentence for this error.
func (e *Error) Message() string { return FriendlyMessage(e.Category) }

package quickfs

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTickerNotFound is returned when the provider answers 404 for a ticker.
var ErrTickerNotFound = errors.New("ticker not found")

// APIError represents a non-200 response other than 404.
// Transient is set for 5xx responses that exhausted their retries.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Endpoint   string
	Attempts   int
	Transient  bool
}

func (e *APIError) Error() string {
	if e.Transient {
		return fmt.Sprintf("QuickFS API unavailable after %d attempts: %s (endpoint: %s)", e.Attempts, e.Status, e.Endpoint)
	}
	if e.Message != "" {
		return fmt.Sprintf("QuickFS API error: %s: %s (endpoint: %s)", e.Status, e.Message, e.Endpoint)
	}
	return fmt.Sprintf("QuickFS API error: %s (endpoint: %s)", e.Status, e.Endpoint)
}

// UserMessage is the text shown to the dashboard user.
func (e *APIError) UserMessage() string {
	if e.Transient {
		return fmt.Sprintf("The data provider is unavailable (%s). Please try again later.", e.Status)
	}
	return fmt.Sprintf("The data provider returned %s.", e.Status)
}

// TransportError wraps a network-level failure: DNS, connection, timeout.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("QuickFS request failed (endpoint: %s): %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// isTransient reports whether a status is retried.
func isTransient(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError
}

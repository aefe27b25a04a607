package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Operator-facing messages returned by Describe.
const (
	MsgTimeout     = "Request timed out. Check the connection to the proxy/device."
	MsgBadGateway  = "No response from the device (Bad Gateway). Check that the proxy and the controller are powered."
	MsgNotFound    = "Endpoint not found (404). Check the /api/* route and the firmware version."
	MsgServerError = "Internal server error (500). Check the proxy/device logs."
	MsgUnknown     = "Unknown error"
)

// TimeoutError means the call deadline elapsed before the exchange settled.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: timed out after %s", e.Method, e.URL, e.Timeout)
}

// GatewayError is a 502 answer: the intermediary is up but the device behind it is not.
// The body is kept for inspection and is never parsed as a payload.
type GatewayError struct {
	URL        string
	StatusCode int
	Body       string
	Response   *http.Response
}

func (e *GatewayError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return fmt.Sprintf("bad gateway from %s: %s", e.URL, body)
	}
	return fmt.Sprintf("bad gateway from %s", e.URL)
}

// NetworkError covers DNS failures, refused connections and caller cancellation.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a completed exchange with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Message    string
	Response   *http.Response
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Error %d", e.StatusCode)
}

// ParseError records a JSON body that could not be parsed. It never fails a call.
type ParseError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse JSON from %s (status %d): %v", e.URL, e.StatusCode, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Describe maps an error to a fixed operator-facing message.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var te *TimeoutError
	if errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return MsgBadGateway
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return describeStatus(he.StatusCode)
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnknown
}

func describeStatus(code int) string {
	switch code {
	case http.StatusBadGateway:
		return MsgBadGateway
	case http.StatusNotFound:
		return MsgNotFound
	case http.StatusInternalServerError:
		return MsgServerError
	default:
		return fmt.Sprintf("HTTP error %d", code)
	}
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"
)

// ErrEmptyResponse is returned when the generator answers with nothing but whitespace
var ErrEmptyResponse = stderrors.New("generator returned an empty response")

// UnavailableError means the generation service could not be reached or does
// not serve the configured model
type UnavailableError struct {
	Provider string
	Model    string
	Reason   string
	Err      error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s generator unavailable", e.Provider)
	if e.Model != "" {
		msg += fmt.Sprintf(" (model %s)", e.Model)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// TimeoutError means the generation service did not answer in time
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s generator timed out after %s: %v", e.Provider, e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RequestError is any other failed exchange with the generation service
type RequestError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsUnavailable reports whether err means generation cannot be served.
// Request failures and context window overflows count as unavailable;
// timeouts do not.
func IsUnavailable(err error) bool {
	var unavailable *UnavailableError
	var request *RequestError
	var contextWindow *ContextWindowError
	return stderrors.As(err, &unavailable) || stderrors.As(err, &request) || stderrors.As(err, &contextWindow)
}

// IsTimeout reports whether err is a generation timeout
func IsTimeout(err error) bool {
	var timeout *TimeoutError
	return stderrors.As(err, &timeout)
}

// FromTransport classifies an error returned by the HTTP client or SDK
// before any response arrived
func FromTransport(provider string, timeout time.Duration, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Provider: provider, Timeout: timeout, Err: err}
	}
	return &UnavailableError{Provider: provider, Reason: "service unreachable", Err: err}
}

package xclient

import (
	"fmt"
	"time"
)

// Class groups non-2xx statuses.
type Class string

const (
	ClassClient  Class = "client error"
	ClassServer  Class = "server error"
	ClassUnknown Class = "unknown error"
)

// Classify maps an HTTP status to its error class.
func Classify(status int) Class {
	switch {
	case status >= 400 && status < 500:
		return ClassClient
	case status >= 500 && status < 600:
		return ClassServer
	default:
		return ClassUnknown
	}
}

// TransportError is a failure to complete the HTTP round trip.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body does not match the expected shape.
type DecodeError struct {
	Op     string
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response (status %d): %v", e.Op, e.Status, e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }

// APIError is a non-2xx response.
type APIError struct {
	Op      string
	Status  int
	Class   Class
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s: status %d", e.Op, e.Class, e.Status)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", e.Op, e.Class, e.Status, e.Message)
}

// Retryable reports whether the caller may retry without changing the request.
func (e *APIError) Retryable() bool { return e.Class == ClassServer }

// ClockError means no valid timestamp can be produced. It is raised with
// panic, not returned.
type ClockError struct {
	Op  string
	Now time.Time
}

func (e *ClockError) Error() string {
	msg := fmt.Sprintf("system clock unavailable: read %s, before the Unix epoch", e.Now.UTC().Format(time.RFC3339))
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

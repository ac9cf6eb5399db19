// Package apperr classifies failures crossing the upstream boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind partitions errors by what went wrong, not where.
type Kind string

const (
	// Transport covers unreachable upstreams and non-2xx responses.
	Transport Kind = "upstream_unreachable"
	// Parse covers malformed upstream payloads and missing expected fields.
	Parse Kind = "upstream_malformed"
	// Internal is everything else.
	Internal Kind = "internal"
)

// Error carries a kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// TransportErr wraps a transport-level failure of op.
func TransportErr(op string, err error) *Error {
	return &Error{Kind: Transport, Op: op, Err: err}
}

// ParseErr wraps a malformed-payload failure of op.
func ParseErr(op string, err error) *Error {
	return &Error{Kind: Parse, Op: op, Err: err}
}

// As unwraps err to an *Error if there is one in the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HTTPStatus maps an error to the response status for a failed request.
// Upstream failures surface as 502 because the service itself is healthy.
func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Transport, Parse:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// Message returns the public error code for a failed request body.
func Message(err error) string {
	if ae, ok := As(err); ok {
		return string(ae.Kind)
	}
	return string(Internal)
}

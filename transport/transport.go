// Package transport carries serialized requests to the server.
//
// The lists package talks to a Transport, never to net/http directly, so
// authentication, TLS, retries and rate limiting are transport concerns.
// HTTP is the production implementation; tests substitute a fake.
//
// # Errors
//
// Send returns an error wrapping ErrTransport when no response was received.
// A received response is returned as is, whatever its status code; the caller
// decides what a non-2xx status means.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTransport is returned when a request could not be completed.
var ErrTransport = errors.New("transport failure")

// Request is a single HTTP exchange.
type Request struct {
	// Operation labels the request in logs and metrics, e.g. "GetListItems".
	Operation string
	Method    string
	URL       string
	Header    map[string]string
	Body      []byte
	// Timeout bounds the exchange when positive.
	Timeout time.Duration
}

// Response is a fully buffered reply.
type Response struct {
	StatusCode int
	Header     map[string]string
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport sends requests.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// StatusError describes a non-2xx response.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	const limit = 200
	body := string(e.Body)
	if len(body) > limit {
		body = body[:limit] + "..."
	}
	return fmt.Sprintf("%s: http status %d: %s", e.Operation, e.StatusCode, body)
}

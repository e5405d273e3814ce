// Package sptest provides a fake transport and canned Lists web service
// responses for tests.
package sptest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/smnsjas/go-splists/soap"
	"github.com/smnsjas/go-splists/transport"
)

// HandlerFunc answers one request.
type HandlerFunc func(req *transport.Request) (*transport.Response, error)

type route struct {
	op    string
	match func(req *transport.Request) bool
	fn    HandlerFunc
}

// Transport is an in-memory transport.Transport. Requests are routed by the
// operation named in their SOAPAction header; when several routes match, the
// most recently registered wins. Unrouted requests get a 500 response
// carrying a SOAP fault.
type Transport struct {
	mu       sync.Mutex
	routes   []route
	requests []*transport.Request
}

// NewTransport creates an empty fake transport.
func NewTransport() *Transport {
	return &Transport{}
}

// Handle answers op with a 200 response carrying body.
func (t *Transport) Handle(op soap.Operation, body []byte) *Transport {
	return t.HandleFunc(op, Reply(http.StatusOK, body))
}

// HandleStatus answers op with the given status and body.
func (t *Transport) HandleStatus(op soap.Operation, status int, body []byte) *Transport {
	return t.HandleFunc(op, Reply(status, body))
}

// HandleList answers op for requests whose listName parameter is listName.
func (t *Transport) HandleList(op soap.Operation, listName string, body []byte) *Transport {
	param := []byte("<ns1:listName>" + escape(listName) + "</ns1:listName>")
	return t.add(route{
		op:    op.String(),
		match: func(req *transport.Request) bool { return bytes.Contains(req.Body, param) },
		fn:    Reply(http.StatusOK, body),
	})
}

// HandleFunc routes op to fn.
func (t *Transport) HandleFunc(op soap.Operation, fn HandlerFunc) *Transport {
	return t.add(route{op: op.String(), fn: fn})
}

func (t *Transport) add(r route) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, r)
	return t
}

// Reply returns a handler answering with a fixed status and body.
func Reply(status int, body []byte) HandlerFunc {
	return func(*transport.Request) (*transport.Response, error) {
		return &transport.Response{StatusCode: status, Body: body}, nil
	}
}

// Sequence returns a handler answering with bodies in turn, repeating the
// last one when exhausted.
func Sequence(bodies ...[]byte) HandlerFunc {
	var (
		mu sync.Mutex
		n  int
	)
	return func(*transport.Request) (*transport.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		i := n
		if i >= len(bodies) {
			i = len(bodies) - 1
		}
		n++
		return &transport.Response{StatusCode: http.StatusOK, Body: bodies[i]}, nil
	}
}

// Send implements transport.Transport.
func (t *Transport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrTransport, err)
	}
	op := strings.TrimPrefix(req.Header["SOAPAction"], soap.ServiceNamespace)

	t.mu.Lock()
	t.requests = append(t.requests, req)
	var fn HandlerFunc
	for i := len(t.routes) - 1; i >= 0; i-- {
		r := t.routes[i]
		if r.op == op && (r.match == nil || r.match(req)) {
			fn = r.fn
			break
		}
	}
	t.mu.Unlock()

	if fn == nil {
		return &transport.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       Fault("soap:Server", "no handler for "+op, ""),
		}, nil
	}
	return fn(req)
}

// Requests returns the requests sent so far.
func (t *Transport) Requests() []*transport.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*transport.Request, len(t.requests))
	copy(out, t.requests)
	return out
}

// LastRequest returns the most recent request for op, or nil.
func (t *Transport) LastRequest(op soap.Operation) *transport.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.requests) - 1; i >= 0; i-- {
		if t.requests[i].Header["SOAPAction"] == op.SOAPAction() {
			return t.requests[i]
		}
	}
	return nil
}

// Count returns the number of requests sent for op.
func (t *Transport) Count(op soap.Operation) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.requests {
		if r.Header["SOAPAction"] == op.SOAPAction() {
			n++
		}
	}
	return n
}

package transport

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout is the per-request budget applied when none is configured.
const DefaultTimeout = 30 * time.Second

// Request describes one HTTP call.
type Request struct {
	// Method is the HTTP method. Defaults to GET when empty.
	Method string

	// Path is the endpoint path relative to the configured base URL,
	// e.g. "/api/sager".
	Path string

	// Query holds the query parameters.
	Query map[string]string

	// Headers are merged over the transport's default headers.
	Headers map[string]string

	// Body is the request body, serialized as JSON when non-nil.
	Body any

	// Timeout overrides the transport's default budget for this request.
	Timeout time.Duration
}

// Response is the raw outcome of a successful (2xx) call.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs one network call.
//
// Contract:
// - A 2xx response returns (*Response, nil).
// - Every expected failure returns a *Error; Send never panics for
//   network-level problems.
// - Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a function to the Transport interface, mirroring
// http.HandlerFunc. Useful for test doubles.
type Func func(ctx context.Context, req Request) (*Response, error)

// Send calls f.
func (f Func) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

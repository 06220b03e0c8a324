package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind classifies a transport failure.
type Kind int

const (
	// KindUnknown covers failures that fit no other bucket.
	KindUnknown Kind = iota

	// KindHTTP means the server was reachable and rejected the request
	// (non-2xx status), or answered with an application-level failure.
	KindHTTP

	// KindTimeout means no response arrived within the request budget.
	KindTimeout

	// KindNetwork means the server was unreachable: DNS failure,
	// connection refused, connection reset.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the transport and everything
// layered on it. StatusCode is set only for KindHTTP responses carrying a
// status; Cause holds the underlying error when one exists.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP && e.StatusCode != 0 {
		return fmt.Sprintf("transport: %s %d: %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsNetwork reports whether err is a connection-level failure.
func IsNetwork(err error) bool { return kindOf(err) == KindNetwork }

// IsHTTP reports whether err is a server rejection. The rejected status
// code, when known, is available via AsError.
func IsHTTP(err error) bool { return kindOf(err) == KindHTTP }

// AsError extracts the typed transport error from err's chain.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func kindOf(err error) Kind {
	if te, ok := AsError(err); ok {
		return te.Kind
	}
	return KindUnknown
}

// Classify wraps an arbitrary request error into a typed *Error.
// Context deadline expiry and net timeouts become KindTimeout, URL and
// connection errors become KindNetwork, the rest KindUnknown. An err that
// already carries an *Error is returned as-is.
func Classify(err error) *Error {
	if te, ok := AsError(err); ok {
		return te
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "request timed out", Cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindNetwork, Message: urlErr.Err.Error(), Cause: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindNetwork, Message: opErr.Error(), Cause: err}
	}

	return &Error{Kind: KindUnknown, Message: err.Error(), Cause: err}
}

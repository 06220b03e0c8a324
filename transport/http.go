package transport

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "X-Request-ID"

// Config configures the HTTP transport.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000".
	BaseURL string

	// Timeout is the default per-request budget.
	// Default: DefaultTimeout (30s).
	Timeout time.Duration

	// Headers are sent with every request.
	Headers map[string]string

	// Logger receives debug-level request logs. Disabled when unset.
	Logger zerolog.Logger

	// Tracer opens one span per request. Defaults to the global tracer
	// provider, which is a no-op unless the application installs one.
	Tracer trace.Tracer
}

// HTTPTransport is the resty-backed Transport implementation.
type HTTPTransport struct {
	client *resty.Client
	config Config
	log    zerolog.Logger
	tracer trace.Tracer
}

// NewHTTPTransport creates a transport for the given configuration.
func NewHTTPTransport(config Config) *HTTPTransport {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer("github.com/mhelbo/gidasclient/transport")
	}

	client := resty.New()
	if config.BaseURL != "" {
		client.SetBaseURL(config.BaseURL)
	}
	if len(config.Headers) > 0 {
		client.SetHeaders(config.Headers)
	}

	return &HTTPTransport{
		client: client,
		config: config,
		log:    config.Logger,
		tracer: config.Tracer,
	}
}

// Send performs one HTTP call. Non-2xx responses, timeouts and connection
// failures all come back as *Error.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.method()
	requestID := uuid.NewString()

	ctx, span := t.tracer.Start(ctx, method+" "+req.Path, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", req.Path),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	r := t.client.R().SetContext(ctx)
	r.SetHeader(requestIDHeader, requestID)
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(method, req.Path)
	elapsed := time.Since(start)

	if err != nil {
		terr := Classify(err)
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Kind.String())
		t.log.Debug().
			Str("method", method).
			Str("path", req.Path).
			Str("request_id", requestID).
			Dur("elapsed", elapsed).
			Str("kind", terr.Kind.String()).
			Msg("request failed")
		return nil, terr
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))

	if resp.IsError() {
		terr := &Error{
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode(),
			Message:    httpMessage(resp),
		}
		span.SetStatus(codes.Error, terr.Kind.String())
		t.log.Debug().
			Str("method", method).
			Str("path", req.Path).
			Str("request_id", requestID).
			Int("status", resp.StatusCode()).
			Dur("elapsed", elapsed).
			Msg("request rejected")
		return nil, terr
	}

	t.log.Debug().
		Str("method", method).
		Str("path", req.Path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode()).
		Dur("elapsed", elapsed).
		Msg("request completed")

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}

// httpMessage extracts a human-readable message from a rejection body.
// The backend wraps errors as {"error": "...", "message": "..."}; plain
// bodies are used verbatim.
func httpMessage(resp *resty.Response) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err == nil {
		switch {
		case envelope.Error != "":
			return envelope.Error
		case envelope.Message != "":
			return envelope.Message
		case envelope.Detail != "":
			return envelope.Detail
		}
	}
	if msg := strings.TrimSpace(resp.String()); msg != "" {
		return msg
	}
	return resp.Status()
}

// Ensure HTTPTransport implements Transport
var _ Transport = (*HTTPTransport)(nil)

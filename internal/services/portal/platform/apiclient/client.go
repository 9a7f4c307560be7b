package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/louisbranch/smsportal/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the SMS backend root used when none is configured.
const DefaultBaseURL = "http://localhost/sms/api"

const (
	tracerName = "github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	// maxErrorBody bounds how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// UnauthorizedEvent describes one 401 response. Token is the bearer token the
// request carried, empty for unauthenticated calls such as login.
type UnauthorizedEvent struct {
	Token  string
	Method string
	Path   string
}

// Client issues JSON requests against the SMS backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	mu          sync.RWMutex
	nextID      uint64
	subscribers map[uint64]func(UnauthorizedEvent)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTracerProvider sets the provider used for client spans.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithPropagator sets the propagator used to inject trace context headers.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(c *Client) {
		if propagator != nil {
			c.propagator = propagator
		}
	}
}

// New builds a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must use http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("api base url %q is missing a host", baseURL)
	}

	c := &Client{
		baseURL:     parsed,
		httpClient:  &http.Client{Timeout: timeouts.BackendRequest},
		tracer:      otel.Tracer(tracerName),
		propagator:  otel.GetTextMapPropagator(),
		subscribers: map[uint64]func(UnauthorizedEvent){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Subscribe registers fn for every future 401 response. The returned func
// removes the registration and is safe to call more than once.
func (c *Client) Subscribe(fn func(UnauthorizedEvent)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) publishUnauthorized(event UnauthorizedEvent) {
	c.mu.RLock()
	listeners := make([]func(UnauthorizedEvent), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		listeners = append(listeners, fn)
	}
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}
}

// do sends one request. body may be nil, a json.RawMessage sent verbatim, or
// any value encodable as JSON. out may be nil, a *json.RawMessage, or any
// decode target.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	token := TokenFromContext(ctx)

	ctx, span := c.tracer.Start(ctx, "sms "+method, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		message := readErrorMessage(resp.Body)
		c.publishUnauthorized(UnauthorizedEvent{Token: token, Method: method, Path: path})
		return &UnauthorizedError{Message: message}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	return decodeBody(resp.Body, method, path, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, token string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := encodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	target := c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

func encodeBody(body any) ([]byte, error) {
	if raw, ok := body.(json.RawMessage); ok {
		if len(raw) == 0 {
			return []byte("null"), nil
		}
		if !json.Valid(raw) {
			return nil, errors.New("payload is not valid JSON")
		}
		return raw, nil
	}
	return json.Marshal(body)
}

func decodeBody(r io.Reader, method, path string, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &TransportError{Op: "read " + method + " " + path, Err: err}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		if !json.Valid(data) {
			return &TransportError{Op: "decode " + method + " " + path, Err: errors.New("response is not valid JSON")}
		}
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: "decode " + method + " " + path, Err: err}
	}
	return nil
}

// readErrorMessage extracts the backend "error" field from a failed response,
// falling back to FallbackErrorMessage for empty or non-JSON bodies.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return FallbackErrorMessage
	}
	var payload struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return FallbackErrorMessage
	}
	if message, ok := payload.Error.(string); ok && strings.TrimSpace(message) != "" {
		return strings.TrimSpace(message)
	}
	return FallbackErrorMessage
}

// Package transport provides the HTTP transport used to talk to
// exchange REST APIs. It applies rate limiting and circuit breaking
// around a resty client and returns raw response bytes so callers can
// classify and normalize payloads themselves.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"tukar/internal/circuitbreaker"
	"tukar/internal/ratelimit"
	"tukar/pkg/core"
)

// Rate limit tier names used to pick a bucket per request.
const (
	TierPublic  = "public"
	TierPrivate = "private"
)

// Client wraps a resty HTTP client with logging, rate limiting and
// circuit breaking. Request bodies pass through as raw bytes, so the
// bytes a signer covered are exactly the bytes on the wire.
type Client struct {
	client  *resty.Client
	logger  zerolog.Logger
	config  *core.Config
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker

	mu     sync.RWMutex
	closed bool
}

// Response represents an HTTP response with its status code, body, and headers.
type Response struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int

	// Body contains the raw response body bytes.
	Body []byte

	// Headers contains the response headers as key-value pairs.
	Headers map[string]string
}

// NewClient creates a new HTTP client with the specified configuration.
// The client is configured with timeouts and retries; rate limiting and
// circuit breaking are attached with SetLimiter and SetBreaker.
func NewClient(config *core.Config, logger zerolog.Logger) *Client {
	client := resty.New()
	client.SetTimeout(config.Timeout)
	client.SetRetryCount(config.MaxRetries)
	client.SetRetryWaitTime(config.RetryWaitMin)
	client.SetRetryMaxWaitTime(config.RetryWaitMax)

	return &Client{
		client: client,
		logger: logger,
		config: config,
	}
}

// SetBaseURL sets the base URL for all subsequent requests.
func (c *Client) SetBaseURL(url string) {
	c.client.SetBaseURL(url)
}

// SetHeader sets a default header for all subsequent requests.
func (c *Client) SetHeader(key, value string) {
	c.client.SetHeader(key, value)
}

// SetLimiter attaches a rate limiter consulted before every request.
func (c *Client) SetLimiter(l *ratelimit.Limiter) {
	c.limiter = l
}

// SetBreaker attaches a circuit breaker consulted before every request.
func (c *Client) SetBreaker(b *circuitbreaker.Breaker) {
	c.breaker = b
}

// Close releases the underlying connections. Subsequent requests fail
// with core.ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// Do executes an HTTP request and returns the response. The request's
// headers and body are transmitted verbatim; the path is expected to
// already carry any query string.
func (c *Client) Do(ctx context.Context, req *core.Request) (*Response, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, core.ErrClientClosed
	}

	tier := TierPublic
	if req.Auth {
		tier = TierPrivate
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, tier); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, circuitbreaker.ErrOpen)
	}

	requestID := uuid.NewString()
	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Bool("auth", req.Auth).
		Int("body_size", len(req.Body)).
		Msg("http request")

	r := c.client.R().SetContext(ctx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	var resp *resty.Response
	var err error

	switch req.Method {
	case http.MethodGet:
		resp, err = r.Get(req.Path)
	case http.MethodPost:
		resp, err = r.Post(req.Path)
	case http.MethodPut:
		resp, err = r.Put(req.Path)
	case http.MethodDelete:
		resp, err = r.Delete(req.Path)
	case http.MethodPatch:
		resp, err = r.Patch(req.Path)
	default:
		return nil, fmt.Errorf("unsupported http method: %s", req.Method)
	}

	if err != nil {
		if c.breaker != nil {
			c.breaker.Record(false)
		}
		c.logger.Error().Err(err).
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("http request failed")
		return nil, c.classifyTransportError(err)
	}

	if c.breaker != nil {
		c.breaker.Record(resp.StatusCode() < http.StatusInternalServerError)
	}

	body := resp.Bytes()
	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode()).
		Int("size", len(body)).
		Msg("http response")

	headers := make(map[string]string)
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       body,
		Headers:    headers,
	}, nil
}

// classifyTransportError separates deadline failures from other
// connectivity failures so callers can pick a retry strategy.
func (c *Client) classifyTransportError(err error) error {
	exchange := c.config.Exchange

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return core.NewExchangeError(exchange, core.ErrorTypeTimeout, 0, err.Error())
	case errors.As(err, &netErr) && netErr.Timeout():
		return core.NewExchangeError(exchange, core.ErrorTypeTimeout, 0, err.Error())
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("http request: %w", err)
	default:
		return core.NewExchangeError(exchange, core.ErrorTypeNetwork, 0, err.Error())
	}
}

// IsSuccess returns true if the response status code indicates success (2xx).
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the response status code indicates an error (4xx or 5xx).
func (r *Response) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// Unmarshal parses the response body into the provided value using sonic.
func (r *Response) Unmarshal(v any) error {
	return sonic.Unmarshal(r.Body, v)
}

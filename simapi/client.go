package simapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/mission-scenarios/internal/logging"
	"github.com/signalsfoundry/mission-scenarios/internal/observability"
)

// Client is the HTTP transport shared by every handle in a session.
// Idempotent calls that fail with a retryable status (429 or upstream
// faults) are retried with exponential backoff; non-idempotent calls such
// as creates and invokes are attempted once, since a retry after the server
// commits could duplicate remote state. Client errors are surfaced
// immediately.
type Client struct {
	base       string
	key        string
	http       *http.Client
	log        logging.Logger
	metrics    *observability.APICollector
	maxRetries uint
}

// Option customises a Client.
type Option func(*Client)

// WithLogger attaches a structured logger to the client.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics attaches a Prometheus collector to the client.
func WithMetrics(m *observability.APICollector) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithMaxRetries bounds retry attempts for retryable failures.
func WithMaxRetries(n uint) Option {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient validates the credentials and builds a transport. The HTTP
// round-tripper is instrumented with OpenTelemetry.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		base: creds.BaseURL(),
		key:  creds.Key,
		http: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log:        logging.Noop(),
		maxRetries: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do issues one API call, retrying retryable failures, and decodes the JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	body, err := c.doRaw(ctx, op, method, path, in, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("simapi: %s: decode response: %w", op, err)
	}
	return nil
}

// idempotentOps lists the POST operations that are safe to repeat:
// fetching a singleton system and registering a tracked handle both
// converge to the same remote state on a second attempt.
var idempotentOps = map[string]bool{
	"system.get":     true,
	"tracking.track": true,
}

func retriableCall(method, op string) bool {
	return method != http.MethodPost || idempotentOps[op]
}

// doRaw issues one API call and returns the raw response body.
func (c *Client) doRaw(ctx context.Context, op, method, path string, in any, accept string) ([]byte, error) {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("simapi: %s: encode request: %w", op, err)
		}
	}

	ctx, callID := logging.EnsureCallID(ctx)
	start := time.Now()
	retriable := retriableCall(method, op)

	attempt := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("simapi: %s: build request: %w", op, err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", accept)
		req.Header.Set("X-Request-Id", callID)
		if c.key != "" {
			req.Header.Set("X-Api-Key", c.key)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			c.observe(op, "transport_error", start)
			wrapped := fmt.Errorf("simapi: %s: %w", op, err)
			if !retriable {
				return nil, backoff.Permanent(wrapped)
			}
			return nil, wrapped
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.observe(op, "read_error", start)
			return nil, fmt.Errorf("simapi: %s: read response: %w", op, err)
		}

		c.observe(op, strconv.Itoa(resp.StatusCode), start)
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		var we wireError
		_ = json.Unmarshal(body, &we)
		mapped := mapError(op, resp.StatusCode, we)
		// A missing visualiser will not come back within a retry window.
		if retriable && retryable(resp.StatusCode) && !errors.Is(mapped, ErrVisualiserUnavailable) {
			return nil, mapped
		}
		return nil, backoff.Permanent(mapped)
	}

	body, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxRetries+1),
	)
	if err != nil {
		c.log.Warn(ctx, "remote call failed",
			logging.String("op", op),
			logging.String("call_id", callID),
			logging.Err(err),
		)
		return nil, err
	}
	return body, nil
}

func (c *Client) observe(op, code string, start time.Time) {
	c.metrics.ObserveCall(op, code, time.Since(start).Seconds())
}

// Package api is the client for the article backend's REST API.
//
// Every reply is a {status, data} envelope. A success envelope decodes into
// the typed payload; fail and error envelopes, unreadable replies and
// transport faults all come back as *errmodel.Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wilhg/persephone/pkg/errmodel"
)

// DefaultBaseURL is the staging backend the web client talked to.
const DefaultBaseURL = "https://persephone-backend-staging.herokuapp.com"

const maxReplyBytes = 4 << 20

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusFail    = errmodel.StatusFail
	StatusError   = errmodel.StatusError
)

// Client calls the backend. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	hc      *http.Client
	logger  *log.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is wrapped with
// otelhttp unless it already is.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *log.Logger) Option { return func(c *Client) { c.logger = l } }

// WithTimeout bounds each request. Zero leaves requests bounded only by ctx.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// New builds a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, logger: log.Default()}
	for _, o := range opts {
		o(c)
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	if _, ok := c.hc.Transport.(*otelhttp.Transport); !ok {
		rt := c.hc.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		hc := *c.hc
		hc.Transport = otelhttp.NewTransport(rt)
		c.hc = &hc
	}
	return c, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// request describes one call.
type request struct {
	method string
	path   string
	token  string
	body   any
	schema string
}

// envelope is the decoded reply wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// do sends r and decodes the success payload into T.
func do[T any](ctx context.Context, c *Client, r request) (T, error) {
	var zero T
	var body io.Reader
	if r.body != nil {
		if r.schema != "" {
			if err := validateRequest(r.schema, r.body); err != nil {
				return zero, err
			}
		}
		b, err := json.Marshal(r.body)
		if err != nil {
			return zero, errmodel.System("encode_request", "failed to encode request", map[string]any{"path": r.path}, err)
		}
		body = bytes.NewReader(b)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.base.String()+r.path, body)
	if err != nil {
		return zero, errmodel.System("build_request", "failed to build request", map[string]any{"path": r.path}, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		c.logger.Printf("[DEBUG] %s %s failed after %s: %v", r.method, r.path, time.Since(start), err)
		return zero, transportFault(r, err)
	}
	defer func() { _ = res.Body.Close() }()
	c.logger.Printf("[DEBUG] %s %s -> %d in %s", r.method, r.path, res.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxReplyBytes))
	if err != nil {
		return zero, transportFault(r, err)
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		if res.StatusCode >= 300 {
			return zero, errmodel.Network(errmodel.CodeForStatus(res.StatusCode), http.StatusText(res.StatusCode),
				map[string]any{"path": r.path, "http_status": res.StatusCode}, err)
		}
		return zero, errmodel.Network("bad_envelope", "unreadable reply from server",
			map[string]any{"path": r.path, "http_status": res.StatusCode}, err)
	}

	switch env.Status {
	case StatusSuccess:
		if res.StatusCode >= 300 {
			break
		}
		var out T
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return out, nil
		}
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, errmodel.Network("bad_payload", "unexpected payload from server",
				map[string]any{"path": r.path}, err)
		}
		return out, nil
	}

	code := "rejected"
	if res.StatusCode >= 300 {
		code = errmodel.CodeForStatus(res.StatusCode)
	}
	fault := errmodel.Remote(code, env.message(), map[string]any{"path": r.path, "http_status": res.StatusCode})
	if env.Status == StatusError {
		fault.Status = StatusError
	}
	return zero, fault
}

// message extracts a human-readable reason from a non-success envelope. The
// backend sends either a bare string or an object with a message field.
func (e envelope) message() string {
	if len(e.Data) > 0 {
		var s string
		if err := json.Unmarshal(e.Data, &s); err == nil && s != "" {
			return s
		}
		var obj map[string]any
		if err := json.Unmarshal(e.Data, &obj); err == nil {
			for _, k := range []string{"message", "error", "msg"} {
				if s, ok := obj[k].(string); ok && s != "" {
					return s
				}
			}
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, e.Data); err == nil && buf.Len() > 0 && buf.String() != "null" {
			return buf.String()
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return "request failed"
}

func transportFault(r request, err error) *errmodel.Error {
	code := "unreachable"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = "timeout"
	case errors.Is(err, context.Canceled):
		code = "canceled"
	}
	return errmodel.Network(code, "could not reach server", map[string]any{"method": r.method, "path": r.path}, err)
}

// Package gateway wraps HTTP calls to the device (or its proxy) with a
// deadline, JSON helpers and classification of transport failures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"traffic_supervisor/internal/logger"
)

const (
	// DefaultTimeout bounds every call unless Options.Timeout says otherwise.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20 // 1 MB
)

// URLBuilder turns a request path into an absolute URL. Implemented by endpoint.Resolver.
type URLBuilder interface {
	URL(path string) string
}

// Options configure a single call.
type Options struct {
	Method string
	Header http.Header
	// JSON is serialized as the request body unless Body is set.
	JSON any
	// Body is sent as-is and wins over JSON.
	Body io.Reader
	// Timeout defaults to the client's timeout (DefaultTimeout).
	Timeout time.Duration
	// AcceptBadGateway returns 502 responses as results instead of *GatewayError.
	AcceptBadGateway bool
}

// Result is a completed HTTP exchange. The response body has been read into Body.
type Result struct {
	// Data holds the body when the response is JSON and parses; nil otherwise.
	Data     json.RawMessage
	Body     []byte
	Response *http.Response
	ParseErr error
}

// StatusCode returns the HTTP status of the exchange.
func (r *Result) StatusCode() int {
	if r == nil || r.Response == nil {
		return 0
	}
	return r.Response.StatusCode
}

// OK reports a 2xx status.
func (r *Result) OK() bool {
	code := r.StatusCode()
	return code >= 200 && code < 300
}

// Decode unmarshals Data into v. A result without data leaves v untouched.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// StatusError returns nil for 2xx results and an *HTTPError otherwise. The
// message comes from an {"error": "..."} body when the device sent one.
func (r *Result) StatusError() error {
	if r.OK() {
		return nil
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = r.Decode(&payload)
	return &HTTPError{
		StatusCode: r.StatusCode(),
		Message:    payload.Error,
		Response:   r.Response,
	}
}

// Client issues guarded calls against the resolved device base.
type Client struct {
	urls       URLBuilder
	httpClient *http.Client
	timeout    time.Duration
	log        *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout changes the default per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New returns a Client resolving paths through urls.
func New(urls URLBuilder, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		urls:       urls,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		log:        logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs one request. Failures come back as *TimeoutError, *GatewayError
// or *NetworkError; non-2xx statuses are returned as results (see Result.StatusError).
func (c *Client) Call(ctx context.Context, path string, opts Options) (*Result, error) {
	url := c.urls.URL(path)
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	for k, vs := range opts.Header {
		header.Del(k)
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	body := opts.Body
	if body == nil && opts.JSON != nil {
		b, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, url, body)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: url, Err: err}
	}
	req.Header = header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(callCtx, method, url, timeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(callCtx, method, url, timeout, err)
	}

	if resp.StatusCode == http.StatusBadGateway && !opts.AcceptBadGateway {
		return nil, &GatewayError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Response:   resp,
		}
	}

	res := &Result{Body: raw, Response: resp}
	if isJSON(resp.Header.Get("Content-Type")) {
		if json.Valid(raw) {
			res.Data = json.RawMessage(raw)
		} else {
			res.ParseErr = &ParseError{URL: url, StatusCode: resp.StatusCode, Err: errors.New("invalid JSON body")}
			c.log.Warnw("gateway_json_parse_failed", "url", url, "status", resp.StatusCode)
		}
	}
	return res, nil
}

// GetJSON is Call with method GET.
func (c *Client) GetJSON(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.Method = http.MethodGet
	return c.Call(ctx, path, opts)
}

// PostJSON is Call with method POST and payload as the JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, payload any, opts Options) (*Result, error) {
	opts.Method = http.MethodPost
	opts.JSON = payload
	return c.Call(ctx, path, opts)
}

func classify(callCtx context.Context, method, url string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Method: method, URL: url, Timeout: timeout}
	}
	return &NetworkError{Method: method, URL: url, Err: err}
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

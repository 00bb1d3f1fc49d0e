package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// BeforeRequestHook receives the effective configuration of a call and
// returns the configuration to use.
type BeforeRequestHook func(cfg RequestConfig) RequestConfig

// AfterResponseHook receives the normalized response and decides the outcome
// of the call through s. When set it replaces the default policy.
type AfterResponseHook func(resp *Response, s Settler)

// ClientDefaults is the base configuration inherited by every call.
type ClientDefaults struct {
	// BaseURL prefixes URLs that do not start with "http".
	BaseURL string

	// Timeout, when set, takes precedence over the per-call timeout.
	Timeout time.Duration

	Auth          AuthProvider
	BeforeRequest BeforeRequestHook
	AfterResponse AfterResponseHook

	// Header is sent with every call, under caller and auth headers.
	Header http.Header

	// RequestIDHeader, when set, receives a fresh UUID unless the caller
	// already set it.
	RequestIDHeader string

	// LenientPathParams sends requests whose path still has unresolved
	// placeholders instead of failing them.
	LenientPathParams bool
}

func (d ClientDefaults) clone() ClientDefaults {
	out := d
	if d.Header != nil {
		out.Header = d.Header.Clone()
	}
	return out
}

// Client issues calls with inherited defaults.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	defaults  atomic.Pointer[ClientDefaults]
	transport Transport
	logger    logrus.FieldLogger
	metrics   *MetricsCollector
}

// NewClient creates a new client with the given options.
//
// Example:
//
//	client := http.NewClient(
//	    http.WithBaseURL("https://api.example.com"),
//	    http.WithTimeout(10*time.Second),
//	    http.WithAuth(http.StaticAuth(http.Bearer("token"))),
//	)
func NewClient(options ...ClientOption) *Client {
	c := &Client{}
	c.defaults.Store(&ClientDefaults{})

	for _, option := range options {
		option(c)
	}

	if c.transport == nil {
		c.transport = NewHTTPTransport(nil)
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}
	return c
}

// Defaults returns a copy of the current defaults.
func (c *Client) Defaults() ClientDefaults {
	return c.defaults.Load().clone()
}

// SetDefaults replaces the defaults for calls started afterwards. Calls in
// flight keep the snapshot they started with. Prefer configuring a client
// once through options.
func (c *Client) SetDefaults(d ClientDefaults) {
	d = d.clone()
	c.defaults.Store(&d)
}

func (c *Client) updateDefaults(fn func(d *ClientDefaults)) {
	d := c.Defaults()
	fn(&d)
	c.defaults.Store(&d)
}

// Go starts a call in a new goroutine and returns its future.
func (c *Client) Go(ctx context.Context, url string, cfg RequestConfig) *Future {
	f := newFuture()
	go c.execute(ctx, url, cfg, f)
	return f
}

// Call runs a call and waits for its outcome. With the default policy a
// successful call returns the decoded body and any other outcome returns a
// *ResponseError carrying the normalized response.
func (c *Client) Call(ctx context.Context, url string, cfg RequestConfig) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFuture()
	c.execute(ctx, url, cfg, f)
	return f.Wait(ctx)
}

// Request is Call.
func (c *Client) Request(ctx context.Context, url string, cfg RequestConfig) (any, error) {
	return c.Call(ctx, url, cfg)
}

// Get calls url with the given query. Fields set in cfg take precedence over
// the method and the query.
func (c *Client) Get(ctx context.Context, url string, query Query, cfg *RequestConfig) (any, error) {
	return c.Call(ctx, url, verbConfig(http.MethodGet, cfg, func(rc *RequestConfig) {
		if rc.Query == nil {
			rc.Query = query
		}
	}))
}

// Post calls url with body.
func (c *Client) Post(ctx context.Context, url string, body any, cfg *RequestConfig) (any, error) {
	return c.Call(ctx, url, verbConfig(http.MethodPost, cfg, withBody(body)))
}

// Put calls url with body.
func (c *Client) Put(ctx context.Context, url string, body any, cfg *RequestConfig) (any, error) {
	return c.Call(ctx, url, verbConfig(http.MethodPut, cfg, withBody(body)))
}

// Patch calls url with body.
func (c *Client) Patch(ctx context.Context, url string, body any, cfg *RequestConfig) (any, error) {
	return c.Call(ctx, url, verbConfig(http.MethodPatch, cfg, withBody(body)))
}

// Delete calls url with body.
func (c *Client) Delete(ctx context.Context, url string, body any, cfg *RequestConfig) (any, error) {
	return c.Call(ctx, url, verbConfig(http.MethodDelete, cfg, withBody(body)))
}

// Head calls url with the HEAD method.
func (c *Client) Head(ctx context.Context, url string, cfg *RequestConfig) (any, error) {
	return c.Call(ctx, url, verbConfig(http.MethodHead, cfg, nil))
}

// Options calls url with the OPTIONS method.
func (c *Client) Options(ctx context.Context, url string, cfg *RequestConfig) (any, error) {
	return c.Call(ctx, url, verbConfig(http.MethodOptions, cfg, nil))
}

func withBody(body any) func(rc *RequestConfig) {
	return func(rc *RequestConfig) {
		if rc.Body == nil {
			rc.Body = body
		}
	}
}

// verbConfig layers cfg over the verb's method and data.
func verbConfig(method string, cfg *RequestConfig, data func(rc *RequestConfig)) RequestConfig {
	var rc RequestConfig
	if cfg != nil {
		rc = cfg.Clone()
	}
	if rc.Method == "" {
		rc.Method = method
	}
	if data != nil {
		data(&rc)
	}
	return rc
}

// Do runs a call and converts the resolved value to T. Values already of
// type T are returned as-is; others are converted through JSON.
func Do[T any](ctx context.Context, c *Client, url string, cfg RequestConfig) (T, error) {
	v, err := c.Call(ctx, url, cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	return convert[T](v)
}

func convert[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var out T
	if v == nil {
		return out, nil
	}
	data, err := json.Marshal(v)
	if err == nil {
		err = json.Unmarshal(data, &out)
	}
	if err != nil {
		return out, &Error{
			Type:    ErrorTypeDecoding,
			Message: "convert resolved value",
			Cause:   err,
		}
	}
	return out, nil
}

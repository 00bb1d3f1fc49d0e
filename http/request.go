package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Params maps path parameter names to scalar values.
type Params map[string]any

// Query maps query keys to a scalar, a slice of scalars, or nil. Nil entries
// are dropped; slice entries repeat the key.
type Query map[string]any

// QueryFromValues converts url.Values into a Query, keeping value order.
func QueryFromValues(v url.Values) Query {
	if v == nil {
		return nil
	}
	q := make(Query, len(v))
	for k, vv := range v {
		q[k] = append([]string(nil), vv...)
	}
	return q
}

// ResponseType selects how the response body is materialized.
type ResponseType string

const (
	ResponseArrayBuffer ResponseType = "arrayBuffer"
	ResponseBlob        ResponseType = "blob"
	ResponseFormData    ResponseType = "formData"
	ResponseJSON        ResponseType = "json"
	ResponseText        ResponseType = "text"
)

// Mode is the fetch request mode. HTTPTransport accepts it for compatibility
// but has no CORS semantics to apply.
type Mode string

const (
	ModeCORS       Mode = "cors"
	ModeNoCORS     Mode = "no-cors"
	ModeSameOrigin Mode = "same-origin"
)

// CachePolicy is the fetch cache mode.
type CachePolicy string

const (
	CacheDefault      CachePolicy = "default"
	CacheNoStore      CachePolicy = "no-store"
	CacheNoCache      CachePolicy = "no-cache"
	CacheReload       CachePolicy = "reload"
	CacheForceCache   CachePolicy = "force-cache"
	CacheOnlyIfCached CachePolicy = "only-if-cached"
)

// CredentialsPolicy controls whether cookies are sent and stored.
type CredentialsPolicy string

const (
	CredentialsInclude    CredentialsPolicy = "include"
	CredentialsSameOrigin CredentialsPolicy = "same-origin"
	CredentialsOmit       CredentialsPolicy = "omit"
)

// RedirectPolicy controls how redirects are handled.
type RedirectPolicy string

const (
	RedirectFollow RedirectPolicy = "follow"
	RedirectManual RedirectPolicy = "manual"
	RedirectError  RedirectPolicy = "error"
)

// RequestConfig holds per-call options. It is treated as immutable input:
// the pipeline derives its effective configuration from Clone.
type RequestConfig struct {
	Method string
	Params Params
	Query  Query

	// Body is sent as-is when it is a *Blob, []byte, *FormData, string or
	// io.Reader. Any other value is JSON-encoded.
	Body any

	// ResponseType forces a body materialization; empty means sniff the
	// Content-Type (json when it contains "json", text otherwise).
	ResponseType ResponseType

	Timeout time.Duration

	// Signal is an external cancellation source. When nil the context passed
	// to the call is used.
	Signal context.Context

	Header http.Header

	Mode           Mode
	Cache          CachePolicy
	Credentials    CredentialsPolicy
	Redirect       RedirectPolicy
	ReferrerPolicy string
	Integrity      string
}

// Clone returns a copy whose maps and headers can be modified without
// affecting c.
func (c RequestConfig) Clone() RequestConfig {
	out := c
	if c.Params != nil {
		out.Params = make(Params, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.Query != nil {
		out.Query = make(Query, len(c.Query))
		for k, v := range c.Query {
			out.Query[k] = v
		}
	}
	if c.Header != nil {
		out.Header = c.Header.Clone()
	}
	return out
}

// method returns the upper-cased verb, GET when unset.
func (c RequestConfig) method() string {
	m := strings.ToUpper(strings.TrimSpace(c.Method))
	if m == "" {
		return http.MethodGet
	}
	return m
}

// WithMethod returns a copy with the method set.
func (c RequestConfig) WithMethod(method string) RequestConfig {
	out := c.Clone()
	out.Method = method
	return out
}

// WithHeader returns a copy with the header set.
func (c RequestConfig) WithHeader(key, value string) RequestConfig {
	out := c.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	out.Header.Set(key, value)
	return out
}

// WithParam returns a copy with one path parameter set.
func (c RequestConfig) WithParam(name string, value any) RequestConfig {
	out := c.Clone()
	if out.Params == nil {
		out.Params = make(Params)
	}
	out.Params[name] = value
	return out
}

// WithQueryParam returns a copy with one query entry set.
func (c RequestConfig) WithQueryParam(key string, value any) RequestConfig {
	out := c.Clone()
	if out.Query == nil {
		out.Query = make(Query)
	}
	out.Query[key] = value
	return out
}

// WithBody returns a copy with the body set.
func (c RequestConfig) WithBody(body any) RequestConfig {
	out := c.Clone()
	out.Body = body
	return out
}

// WithTimeout returns a copy with the timeout set.
func (c RequestConfig) WithTimeout(d time.Duration) RequestConfig {
	out := c.Clone()
	out.Timeout = d
	return out
}

// WithResponseType returns a copy with the response type set.
func (c RequestConfig) WithResponseType(t ResponseType) RequestConfig {
	out := c.Clone()
	out.ResponseType = t
	return out
}

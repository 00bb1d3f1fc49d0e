package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Endpoint is a verb bound to a route. With path placeholders in the route,
// args[0] holds the path params and args[1] the query (GET) or body (other
// verbs). Without placeholders args[0] holds the query or body. Params and
// queries may be Params/Query, map[string]any, map[string]string,
// url.Values or a struct encoded through its JSON tags.
type Endpoint func(ctx context.Context, args ...any) (any, error)

// Route binds a URL template to per-verb endpoints.
type Route struct {
	client    *Client
	template  string
	hasParams bool
}

// Route returns the route facade for template.
func (c *Client) Route(template string) *Route {
	return &Route{
		client:    c,
		template:  template,
		hasParams: HasPathParams(template),
	}
}

// Template returns the route's URL template.
func (r *Route) Template() string {
	return r.template
}

// GET returns the GET endpoint.
func (r *Route) GET() Endpoint { return r.endpoint(http.MethodGet) }

// POST returns the POST endpoint.
func (r *Route) POST() Endpoint { return r.endpoint(http.MethodPost) }

// PATCH returns the PATCH endpoint.
func (r *Route) PATCH() Endpoint { return r.endpoint(http.MethodPatch) }

// DELETE returns the DELETE endpoint.
func (r *Route) DELETE() Endpoint { return r.endpoint(http.MethodDelete) }

// PUT returns the PUT endpoint.
func (r *Route) PUT() Endpoint { return r.endpoint(http.MethodPut) }

func (r *Route) endpoint(method string) Endpoint {
	return func(ctx context.Context, args ...any) (any, error) {
		var (
			params Params
			data   any
		)
		if r.hasParams {
			if len(args) > 0 {
				p, err := toParams(args[0])
				if err != nil {
					return nil, err
				}
				params = p
			}
			if len(args) > 1 {
				data = args[1]
			}
		} else if len(args) > 0 {
			data = args[0]
		}

		cfg := &RequestConfig{Params: params}
		if method == http.MethodGet {
			q, err := toQuery(data)
			if err != nil {
				return nil, err
			}
			return r.client.Get(ctx, r.template, q, cfg)
		}
		cfg.Method = method
		cfg.Body = data
		return r.client.Call(ctx, r.template, *cfg)
	}
}

// Bind converts an endpoint's resolved value to Res.
func Bind[Res any](e Endpoint) func(ctx context.Context, args ...any) (Res, error) {
	return func(ctx context.Context, args ...any) (Res, error) {
		v, err := e(ctx, args...)
		if err != nil {
			var zero Res
			return zero, err
		}
		return convert[Res](v)
	}
}

func toParams(v any) (Params, error) {
	m, err := toMap(v)
	if err != nil {
		return nil, err
	}
	return Params(m), nil
}

func toQuery(v any) (Query, error) {
	if vals, ok := v.(url.Values); ok {
		return QueryFromValues(vals), nil
	}
	m, err := toMap(v)
	if err != nil {
		return nil, err
	}
	return Query(m), nil
}

func toMap(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Params:
		return t, nil
	case Query:
		return t, nil
	case map[string]any:
		return t, nil
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, routeArgError(v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, routeArgError(v, err)
	}
	return m, nil
}

func routeArgError(v any, err error) error {
	return &Error{
		Type:    ErrorTypeConfiguration,
		Message: fmt.Sprintf("route argument of type %T is not an object", v),
		Cause:   err,
	}
}

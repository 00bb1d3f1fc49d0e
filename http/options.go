package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for relative call URLs.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) { d.BaseURL = baseURL })
	}
}

// WithTimeout sets a timeout for every call. It takes precedence over
// RequestConfig.Timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) { d.Timeout = timeout })
	}
}

// WithAuth sets the credentials provider, invoked once per call.
func WithAuth(provider AuthProvider) ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) { d.Auth = provider })
	}
}

// WithBeforeRequest sets the pre-request hook.
func WithBeforeRequest(hook BeforeRequestHook) ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) { d.BeforeRequest = hook })
	}
}

// WithAfterResponse sets the post-response hook. The hook must settle the
// call through its Settler.
func WithAfterResponse(hook AfterResponseHook) ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) { d.AfterResponse = hook })
	}
}

// WithHeader adds a default header to all calls made by this client.
// Headers set on individual calls override these defaults.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) {
			if d.Header == nil {
				d.Header = make(http.Header)
			}
			d.Header.Add(key, value)
		})
	}
}

// WithRequestID sends a UUID in header on every call that does not set it.
func WithRequestID(header string) ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) { d.RequestIDHeader = header })
	}
}

// WithLenientPathParams sends calls with unresolved path placeholders left
// in the URL, logging a warning, instead of failing them.
func WithLenientPathParams() ClientOption {
	return func(c *Client) {
		c.updateDefaults(func(d *ClientDefaults) { d.LenientPathParams = true })
	}
}

// WithTransport sets the transport that performs requests.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHTTPClient performs requests through httpClient.
// Use this for advanced configuration like custom transports or TLS settings.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.transport = NewHTTPTransport(httpClient)
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics registers call metrics with reg.
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *Client) {
		c.metrics = NewMetricsCollector(reg)
	}
}

// WithMetricsCollector shares an existing collector between clients.
func WithMetricsCollector(mc *MetricsCollector) ClientOption {
	return func(c *Client) {
		c.metrics = mc
	}
}

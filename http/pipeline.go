package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// execute runs one call to completion and settles f, directly or through
// the after-response hook.
func (c *Client) execute(ctx context.Context, template string, cfg RequestConfig, f *Future) {
	if ctx == nil {
		ctx = context.Background()
	}
	defaults := c.defaults.Load()
	start := time.Now()

	eff := cfg.Clone()
	if defaults.Timeout > 0 {
		eff.Timeout = defaults.Timeout
	}
	if defaults.BeforeRequest != nil {
		eff = defaults.BeforeRequest(eff)
	}
	method := eff.method()

	// the caller's ctx always counts, a signal is an additional source
	sources := []context.Context{ctx}
	if eff.Signal != nil && eff.Signal != ctx {
		sources = append(sources, eff.Signal)
	}
	cancel := composeCancellation(ctx, eff.Timeout, sources...)
	defer cancel.release()
	eff.Signal = cancel.Signal()

	log := c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    template,
	})

	c.metrics.RecordStart(method)
	resp := c.perform(eff, method, template, defaults, cancel, log)
	resp.Method = method
	resp.Duration = time.Since(start)
	c.metrics.RecordEnd(method, resp.Duration)
	c.record(resp, log)

	cancel.Settle()
	if defaults.AfterResponse != nil {
		defaults.AfterResponse(resp, f)
		return
	}
	SettleDefault(resp, f)
}

// perform builds the request, runs the transport and normalizes the result.
// Failures are reported through Response.Err.
func (c *Client) perform(eff RequestConfig, method, template string, defaults *ClientDefaults, cancel *cancellation, log logrus.FieldLogger) *Response {
	u, err := ResolvePath(template, eff.Params)
	if err != nil {
		if !defaults.LenientPathParams {
			return failed(err, method, u)
		}
		log.WithError(err).Warn("Sending request with unresolved path parameters")
	}
	u = JoinBaseURL(defaults.BaseURL, AppendQuery(u, eff.Query))

	body, err := EncodeBody(eff.Body)
	if err != nil {
		return failed(err, method, u)
	}

	opts := TransportOptions{
		Method:         method,
		Header:         buildHeader(eff, defaults, body),
		Body:           body.Body,
		Mode:           eff.Mode,
		Cache:          eff.Cache,
		Credentials:    eff.Credentials,
		Redirect:       eff.Redirect,
		ReferrerPolicy: eff.ReferrerPolicy,
		Integrity:      eff.Integrity,
	}

	log.WithField("resolved_url", u).Debug("Performing request")
	signal := cancel.Signal()
	raw, err := c.transport.Perform(signal, u, opts)
	timedOut := cancel.TimedOut()
	if err != nil {
		if cause := context.Cause(signal); cause != nil && !errors.Is(err, cause) {
			err = fmt.Errorf("%w (%w)", err, cause)
		}
		resp := failed(&Error{Type: ErrorTypeTransport, Message: "request failed", Cause: err}, method, u)
		resp.IsTimeout = timedOut
		return resp
	}

	resp := newResponse(raw)
	b, err := readBody(raw, eff.ResponseType)
	if err != nil {
		resp.Body = nil
		resp.Err = &Error{Type: ErrorTypeDecoding, Message: "read response body", Method: method, URL: u, Cause: err}
		resp.IsTimeout = timedOut
		return resp
	}
	resp.Body = b
	return resp
}

// failed wraps err into a response without status fields.
func failed(err error, method, u string) *Response {
	var e *Error
	if errors.As(err, &e) {
		e.Method = method
		e.URL = u
	}
	return &Response{Err: err, URL: u}
}

// buildHeader layers default headers, caller headers, credentials, the
// request id and finally the JSON content type.
func buildHeader(eff RequestConfig, defaults *ClientDefaults, body EncodedBody) http.Header {
	header := make(http.Header)
	for k, vv := range defaults.Header {
		header[http.CanonicalHeaderKey(k)] = append([]string(nil), vv...)
	}
	for k, vv := range eff.Header {
		header[http.CanonicalHeaderKey(k)] = append([]string(nil), vv...)
	}
	if defaults.Auth != nil {
		if creds := defaults.Auth(); creds != nil {
			creds.Apply(header)
		}
	}
	if defaults.RequestIDHeader != "" && header.Get(defaults.RequestIDHeader) == "" {
		header.Set(defaults.RequestIDHeader, uuid.NewString())
	}
	if body.JSON() {
		header.Set("Content-Type", ContentTypeJSON)
	}
	return header
}

// readBody materializes the body by responseType, or by sniffing the
// content type when it is empty.
func readBody(raw *RawResponse, responseType ResponseType) (any, error) {
	if responseType == "" {
		responseType = ResponseText
		if strings.Contains(raw.Header.Get("Content-Type"), "json") {
			responseType = ResponseJSON
		}
	}
	switch responseType {
	case ResponseArrayBuffer:
		return raw.ArrayBuffer()
	case ResponseBlob:
		return raw.Blob()
	case ResponseFormData:
		return raw.FormData()
	case ResponseJSON:
		return raw.JSON()
	case ResponseText:
		return raw.Text()
	}
	return nil, fmt.Errorf("unknown response type %q", responseType)
}

func (c *Client) record(resp *Response, log logrus.FieldLogger) {
	if resp.Status != 0 {
		c.metrics.RecordResponse(resp.Method, resp.Status)
	}
	fields := logrus.Fields{
		"status":   resp.Status,
		"duration": resp.Duration,
	}
	if resp.Err == nil {
		log.WithFields(fields).Debug("Request completed")
		return
	}
	errType := ErrorTypeTransport
	var e *Error
	if errors.As(resp.Err, &e) {
		errType = e.Type
	}
	c.metrics.RecordError(resp.Method, errType, resp.IsTimeout)
	fields["timeout"] = resp.IsTimeout
	log.WithFields(fields).WithError(resp.Err).Debug("Request failed")
}

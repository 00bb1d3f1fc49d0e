package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TimingInfo stores detailed timing information for a request performed by
// HTTPTransport. All durations represent the time spent in each phase.
type TimingInfo struct {
	// StartTime is when the request started
	StartTime time.Time

	// DNSLookupTime is the time spent looking up the DNS address
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing a TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent performing the TLS handshake (for HTTPS)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte (TTFB) is the time from connection established to receiving the first byte
	TimeToFirstByte time.Duration

	// TotalTime is the time from request start until response headers arrived
	TotalTime time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration
}

// Response is the normalized outcome of one call.
//
// Exactly one of Body and Err is meaningful: Err is set when the call failed
// before a body could be produced (configuration, encoding, transport or
// decoding failure). A non-2xx status is not an error; it shows up as OK=false.
type Response struct {
	OK         bool
	Header     http.Header
	Redirected bool
	Status     int
	StatusText string
	// Type mirrors the fetch response type ("basic", "opaqueredirect").
	Type string
	URL  string
	Body any

	// IsTimeout is set only when the call's timeout fired before the
	// transport settled.
	IsTimeout bool
	Err       error

	Method   string
	Duration time.Duration
	Timing   TimingInfo
}

// newResponse captures the status fields of a raw response. The body is
// filled in afterwards.
func newResponse(raw *RawResponse) *Response {
	return &Response{
		OK:         raw.OK,
		Header:     raw.Header,
		Redirected: raw.Redirected,
		Status:     raw.Status,
		StatusText: raw.StatusText,
		Type:       raw.Type,
		URL:        raw.URL,
		Body:       "",
		Timing:     raw.Timing,
	}
}

// GetHeader returns the value of the specified header.
// Returns an empty string if the header is not present.
func (r *Response) GetHeader(key string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(key)
}

// IsSuccess returns true if the response status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// IsRedirect returns true if the response status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

// IsClientError returns true if the response status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.Status >= 400 && r.Status < 500
}

// IsServerError returns true if the response status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.Status >= 500 && r.Status < 600
}

// BodyString renders the decoded body as text: strings and byte slices as-is,
// structured values as compact JSON.
func (r *Response) BodyString() string {
	switch b := r.Body.(type) {
	case nil:
		return ""
	case string:
		return b
	case []byte:
		return string(b)
	case *Blob:
		return string(b.Data)
	case *FormData:
		return b.Values().Encode()
	default:
		out, err := json.Marshal(b)
		if err != nil {
			return fmt.Sprintf("%v", b)
		}
		return string(out)
	}
}

// StatusLine returns "200 OK" style text.
func (r *Response) StatusLine() string {
	if r.Status == 0 {
		return ""
	}
	text := r.StatusText
	if text == "" {
		text = http.StatusText(r.Status)
	}
	return strings.TrimSpace(fmt.Sprintf("%d %s", r.Status, text))
}

// GetResponseTimeMillis returns the call duration in milliseconds.
func (r *Response) GetResponseTimeMillis() int64 {
	return r.Duration.Milliseconds()
}

package http

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies failures funneled through the settle path.
type ErrorType string

const (
	// ErrorTypeConfiguration covers call configuration problems such as a
	// missing path parameter.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeEncoding is a request body serialization failure.
	ErrorTypeEncoding ErrorType = "encoding"
	// ErrorTypeTransport is a network failure or an abort of any origin.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeDecoding is a response body materialization failure.
	ErrorTypeDecoding ErrorType = "decoding"
)

// Sentinel errors
var (
	// ErrTimeout is the cancellation cause recorded when a call's timeout elapses.
	ErrTimeout = errors.New("timeout")

	// ErrMissingPathParam is wrapped by errors for placeholders without a value.
	ErrMissingPathParam = errors.New("missing path parameter")

	// ErrBodyUsed is returned when a raw response body is materialized twice.
	ErrBodyUsed = errors.New("response body already used")

	// ErrIntegrity is returned when a response body does not match the
	// requested integrity metadata.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrRedirect is returned by the HTTP transport when a redirect is
	// received under RedirectError.
	ErrRedirect = errors.New("redirect not allowed")

	// ErrRejected is used when a post-response hook rejects with a nil error.
	ErrRejected = errors.New("request rejected")
)

// Error describes a failure of one call.
type Error struct {
	Type    ErrorType
	Message string
	Method  string
	URL     string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.Method != "" || e.URL != "" {
		b.WriteString(" [")
		b.WriteString(strings.TrimSpace(strings.ToUpper(e.Method) + " " + e.URL))
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" (%v)", e.Cause))
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error of the same type.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return e.Type == t.Type
	}
	return false
}

// ResponseError is the default rejection: it carries the full normalized
// response of an unsuccessful call.
type ResponseError struct {
	Response *Response
}

func (e *ResponseError) Error() string {
	if e == nil || e.Response == nil {
		return "request failed"
	}
	r := e.Response
	if r.Err != nil {
		return r.Err.Error()
	}
	msg := fmt.Sprintf("http %d", r.Status)
	if r.StatusText != "" {
		msg += " " + r.StatusText
	}
	if r.URL != "" {
		msg = r.URL + ": " + msg
	}
	return msg
}

// Unwrap exposes the response error, if any.
func (e *ResponseError) Unwrap() error {
	if e == nil || e.Response == nil {
		return nil
	}
	return e.Response.Err
}

// AsResponse extracts the normalized response from a rejection.
func AsResponse(err error) (*Response, bool) {
	var re *ResponseError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response, true
	}
	return nil, false
}

// IsTimeout reports whether err comes from a call whose timeout fired.
func IsTimeout(err error) bool {
	if resp, ok := AsResponse(err); ok && resp.IsTimeout {
		return true
	}
	return errors.Is(err, ErrTimeout)
}

// IsHTTPStatus reports whether err is a rejection carrying the given status.
func IsHTTPStatus(err error, code int) bool {
	resp, ok := AsResponse(err)
	return ok && resp.Err == nil && resp.Status == code
}

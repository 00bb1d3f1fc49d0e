package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	lhttp "github.com/wesleyorama2/lither/http"
	"github.com/wesleyorama2/lither/internal/stats"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name. An empty name is text.
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(name)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want text, json or yaml)", name)
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(req RequestView) string
	FormatResponse(resp *lhttp.Response) string
	FormatError(err error) string
	FormatExtracted(values map[string]string) string
	FormatChecks(checks []Check) string
	FormatSummary(s stats.Summary) string
}

// GetFormatter returns a formatter for the specified output format
func GetFormatter(format OutputFormat, verbose, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}

// RequestData represents the structured data of an HTTP request
type RequestData struct {
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      any               `json:"body,omitempty" yaml:"body,omitempty"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
}

// TimingData represents detailed timing information for an HTTP request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of an HTTP response
type ResponseData struct {
	StatusCode   int               `json:"statusCode" yaml:"statusCode"`
	Status       string            `json:"status" yaml:"status"`
	OK           bool              `json:"ok" yaml:"ok"`
	URL          string            `json:"url,omitempty" yaml:"url,omitempty"`
	Redirected   bool              `json:"redirected,omitempty" yaml:"redirected,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body         any               `json:"body,omitempty" yaml:"body,omitempty"`
	ResponseTime int64             `json:"responseTimeMs" yaml:"responseTimeMs"`
	Timing       *TimingData       `json:"timing,omitempty" yaml:"timing,omitempty"`
	Timestamp    string            `json:"timestamp" yaml:"timestamp"`
}

// ErrorData represents a failed call
type ErrorData struct {
	Error   string `json:"error" yaml:"error"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Timeout bool   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// SummaryData is stats.Summary with durations in milliseconds
type SummaryData struct {
	Count     int64   `json:"count" yaml:"count"`
	Success   int64   `json:"success" yaml:"success"`
	Failed    int64   `json:"failed" yaml:"failed"`
	Timeouts  int64   `json:"timeouts" yaml:"timeouts"`
	ErrorRate float64 `json:"errorRate" yaml:"errorRate"`
	MinMs     float64 `json:"minMs" yaml:"minMs"`
	MeanMs    float64 `json:"meanMs" yaml:"meanMs"`
	P50Ms     float64 `json:"p50Ms" yaml:"p50Ms"`
	P90Ms     float64 `json:"p90Ms" yaml:"p90Ms"`
	P95Ms     float64 `json:"p95Ms" yaml:"p95Ms"`
	P99Ms     float64 `json:"p99Ms" yaml:"p99Ms"`
	MaxMs     float64 `json:"maxMs" yaml:"maxMs"`
	RPS       float64 `json:"rps" yaml:"rps"`
}

func requestData(req RequestView) RequestData {
	body := req.Body
	if fd, ok := body.(*lhttp.FormData); ok {
		body = fd.Values()
	}
	return RequestData{
		Method:    req.Method,
		URL:       req.URL,
		Headers:   flattenHeader(req.Header),
		Body:      structuredBody(body),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func responseData(resp *lhttp.Response, verbose bool) ResponseData {
	data := ResponseData{
		StatusCode:   resp.Status,
		Status:       resp.StatusLine(),
		OK:           resp.OK,
		URL:          resp.URL,
		Redirected:   resp.Redirected,
		Headers:      flattenHeader(resp.Header),
		Body:         structuredBody(resp.Body),
		ResponseTime: resp.GetResponseTimeMillis(),
		Timestamp:    time.Now().Format(time.RFC3339),
	}
	if verbose {
		t := resp.Timing
		data.Timing = &TimingData{
			DNSLookup:       t.DNSLookupTime.Milliseconds(),
			TCPConnection:   t.TCPConnectTime.Milliseconds(),
			TLSHandshake:    t.TLSHandshakeTime.Milliseconds(),
			TimeToFirstByte: t.TimeToFirstByte.Milliseconds(),
			ContentTransfer: t.ContentTransferTime.Milliseconds(),
			Total:           resp.GetResponseTimeMillis(),
		}
	}
	return data
}

func errorData(err error) ErrorData {
	data := ErrorData{Error: err.Error(), Timeout: lhttp.IsTimeout(err)}
	var lerr *lhttp.Error
	if errors.As(err, &lerr) {
		data.Type = string(lerr.Type)
	}
	return data
}

func summaryData(s stats.Summary) SummaryData {
	toMs := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	return SummaryData{
		Count:     s.Count,
		Success:   s.Success,
		Failed:    s.Failed,
		Timeouts:  s.Timeouts,
		ErrorRate: s.ErrorRate(),
		MinMs:     toMs(s.Min),
		MeanMs:    toMs(s.Mean),
		P50Ms:     toMs(s.P50),
		P90Ms:     toMs(s.P90),
		P95Ms:     toMs(s.P95),
		P99Ms:     toMs(s.P99),
		MaxMs:     toMs(s.Max),
		RPS:       s.RPS,
	}
}

func flattenHeader(h map[string][]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// structuredBody turns text that holds JSON into a value so it nests in the
// document instead of being quoted.
func structuredBody(body any) any {
	var text string
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		text = b
	case []byte:
		text = string(b)
	case *lhttp.Blob:
		text = string(b.Data)
	case *lhttp.FormData:
		return b.Values()
	default:
		return b
	}
	if text == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(v any) string {
	var out []byte
	var err error
	if f.Pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, "failed to marshal output: "+err.Error())
	}
	return string(out) + "\n"
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(req RequestView) string {
	return f.marshal(requestData(req))
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *lhttp.Response) string {
	return f.marshal(responseData(resp, f.Verbose))
}

// FormatError formats a failed call as JSON
func (f *JSONFormatter) FormatError(err error) string {
	return f.marshal(errorData(err))
}

// FormatExtracted formats extracted variables as JSON
func (f *JSONFormatter) FormatExtracted(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	return f.marshal(map[string]any{"extracted": values})
}

// FormatChecks formats expectation outcomes as JSON
func (f *JSONFormatter) FormatChecks(checks []Check) string {
	return f.marshal(map[string]any{"checks": checks})
}

// FormatSummary formats a latency summary as JSON
func (f *JSONFormatter) FormatSummary(s stats.Summary) string {
	return f.marshal(map[string]any{"summary": summaryData(s)})
}

// YAMLFormatter formats output as YAML documents
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("---\nerror: failed to marshal output: %s\n", err)
	}
	return "---\n" + string(out)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(req RequestView) string {
	return f.marshal(requestData(req))
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *lhttp.Response) string {
	return f.marshal(responseData(resp, f.Verbose))
}

// FormatError formats a failed call as YAML
func (f *YAMLFormatter) FormatError(err error) string {
	return f.marshal(errorData(err))
}

// FormatExtracted formats extracted variables as YAML
func (f *YAMLFormatter) FormatExtracted(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	return f.marshal(map[string]any{"extracted": values})
}

// FormatChecks formats expectation outcomes as YAML
func (f *YAMLFormatter) FormatChecks(checks []Check) string {
	return f.marshal(map[string]any{"checks": checks})
}

// FormatSummary formats a latency summary as YAML
func (f *YAMLFormatter) FormatSummary(s stats.Summary) string {
	return f.marshal(map[string]any{"summary": summaryData(s)})
}

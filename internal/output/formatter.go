package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	lhttp "github.com/wesleyorama2/lither/http"
	"github.com/wesleyorama2/lither/internal/stats"
)

// RequestView is what gets printed about an outgoing request.
type RequestView struct {
	Method string
	URL    string
	Header http.Header
	Body   any
}

// Check is the outcome of one response expectation.
type Check struct {
	Name    string `json:"name" yaml:"name"`
	Passed  bool   `json:"passed" yaml:"passed"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Formatter is responsible for formatting HTTP requests and responses in text format
type Formatter struct {
	Verbose bool
	NoColor bool
	scheme  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  scheme,
	}
}

// FormatRequest formats an HTTP request for display
func (f *Formatter) FormatRequest(req RequestView) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "▶ REQUEST: %s %s\n", f.scheme.Method.Sprint(req.Method), f.scheme.URL.Sprint(req.URL))

	if f.Verbose && len(req.Header) > 0 {
		buf.WriteString("  Headers:\n")
		f.writeHeader(&buf, req.Header)
	}

	if req.Body != nil {
		buf.WriteString("  Body: ")
		switch body := req.Body.(type) {
		case string:
			buf.WriteString(formatJSONString(body))
		case []byte:
			buf.WriteString(formatJSONString(string(body)))
		case *lhttp.FormData:
			buf.WriteString(body.Values().Encode())
		default:
			jsonBody, err := json.Marshal(body)
			if err != nil {
				fmt.Fprintf(&buf, "%v", body)
			} else {
				buf.WriteString(formatJSONString(string(jsonBody)))
			}
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats an HTTP response for display
func (f *Formatter) FormatResponse(resp *lhttp.Response) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "◀ RESPONSE: %s (%dms)\n",
		f.scheme.Status(resp.Status).Sprint(resp.StatusLine()),
		resp.GetResponseTimeMillis())

	if f.Verbose {
		t := resp.Timing
		buf.WriteString("  Timing:\n")
		fmt.Fprintf(&buf, "    DNS Lookup:         %dms\n", t.DNSLookupTime.Milliseconds())
		fmt.Fprintf(&buf, "    TCP Connection:     %dms\n", t.TCPConnectTime.Milliseconds())
		fmt.Fprintf(&buf, "    TLS Handshake:      %dms\n", t.TLSHandshakeTime.Milliseconds())
		fmt.Fprintf(&buf, "    Time to First Byte: %dms\n", t.TimeToFirstByte.Milliseconds())
		fmt.Fprintf(&buf, "    Content Transfer:   %dms\n", t.ContentTransferTime.Milliseconds())
		fmt.Fprintf(&buf, "    Total:              %dms\n", resp.GetResponseTimeMillis())

		if resp.Redirected {
			fmt.Fprintf(&buf, "  Redirected to: %s\n", resp.URL)
		}
		if len(resp.Header) > 0 {
			buf.WriteString("  Headers:\n")
			f.writeHeader(&buf, resp.Header)
		}
	}

	if body := resp.BodyString(); body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatJSONString(body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatError formats a failed call.
func (f *Formatter) FormatError(err error) string {
	var buf strings.Builder
	label := "ERROR"
	if lhttp.IsTimeout(err) {
		label = "TIMEOUT"
	}
	fmt.Fprintf(&buf, "%s %s: %v\n", ErrorIcon(f.NoColor), f.scheme.Error.Sprint(label), err)

	var lerr *lhttp.Error
	if f.Verbose && errors.As(err, &lerr) {
		fmt.Fprintf(&buf, "  Type: %s\n", lerr.Type)
	}
	return buf.String()
}

// FormatExtracted lists extracted variables.
func (f *Formatter) FormatExtracted(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("  Extracted:\n")
	for _, name := range sortedKeys(values) {
		fmt.Fprintf(&buf, "    %s = %s\n", f.scheme.Highlight.Sprint(name), values[name])
	}
	return buf.String()
}

// FormatChecks lists expectation outcomes, one line each.
func (f *Formatter) FormatChecks(checks []Check) string {
	var buf strings.Builder
	for _, c := range checks {
		icon := SuccessIcon(f.NoColor)
		if !c.Passed {
			icon = ErrorIcon(f.NoColor)
		}
		fmt.Fprintf(&buf, "  %s %s", icon, c.Name)
		if c.Message != "" {
			fmt.Fprintf(&buf, ": %s", c.Message)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

// FormatSummary formats a latency summary of repeated calls.
func (f *Formatter) FormatSummary(s stats.Summary) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s %d requests, %s, %s (%d timeouts)\n",
		f.scheme.Label.Sprint("Summary:"),
		s.Count,
		f.scheme.Success.Sprintf("%d succeeded", s.Success),
		f.scheme.Error.Sprintf("%d failed", s.Failed),
		s.Timeouts)
	if s.Count == 0 {
		return buf.String()
	}
	fmt.Fprintf(&buf, "  Latency: min %s  mean %s  p50 %s  p90 %s  p95 %s  p99 %s  max %s\n",
		ms(s.Min), ms(s.Mean), ms(s.P50), ms(s.P90), ms(s.P95), ms(s.P99), ms(s.Max))
	fmt.Fprintf(&buf, "  Throughput: %.2f req/s over %s\n", s.RPS, s.Elapsed.Round(time.Millisecond))
	return buf.String()
}

func (f *Formatter) writeHeader(buf *strings.Builder, header http.Header) {
	for _, key := range sortedKeys(header) {
		for _, value := range header[key] {
			fmt.Fprintf(buf, "    %s: %s\n", f.scheme.HeaderKey.Sprint(key), value)
		}
	}
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return prettyJSON.String()
}

package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/publicsuffix"
)

// maxRedirects matches the fetch redirect limit.
const maxRedirects = 20

// TransportOptions is the request handed to a Transport. Body has already
// been through EncodeBody.
type TransportOptions struct {
	Method         string
	Header         http.Header
	Body           any
	Mode           Mode
	Cache          CachePolicy
	Credentials    CredentialsPolicy
	Redirect       RedirectPolicy
	ReferrerPolicy string
	Integrity      string
}

// Transport performs one request. It must honor ctx cancellation and report a
// non-2xx status as a response, not an error.
type Transport interface {
	Perform(ctx context.Context, url string, opts TransportOptions) (*RawResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, url string, opts TransportOptions) (*RawResponse, error)

// Perform calls f.
func (f TransportFunc) Perform(ctx context.Context, url string, opts TransportOptions) (*RawResponse, error) {
	return f(ctx, url, opts)
}

// RawResponse is an unread transport response. Its body can be materialized
// once, by exactly one of ArrayBuffer, Blob, FormData, JSON or Text.
type RawResponse struct {
	OK         bool
	Header     http.Header
	Redirected bool
	Status     int
	StatusText string
	Type       string
	URL        string
	Body       io.ReadCloser
	Timing     TimingInfo

	used atomic.Bool
}

// NewRawResponse builds a basic response around an in-memory body.
func NewRawResponse(status int, header http.Header, body string) *RawResponse {
	if header == nil {
		header = make(http.Header)
	}
	return &RawResponse{
		OK:         status >= 200 && status < 300,
		Header:     header,
		Status:     status,
		StatusText: http.StatusText(status),
		Type:       "basic",
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// BodyUsed reports whether the body has been materialized.
func (r *RawResponse) BodyUsed() bool {
	return r.used.Load()
}

func (r *RawResponse) consume() ([]byte, error) {
	if r.used.Swap(true) {
		return nil, ErrBodyUsed
	}
	if r.Body == nil {
		return []byte{}, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// ArrayBuffer returns the body bytes.
func (r *RawResponse) ArrayBuffer() ([]byte, error) {
	return r.consume()
}

// Blob returns the body with the response content type.
func (r *RawResponse) Blob() (*Blob, error) {
	data, err := r.consume()
	if err != nil {
		return nil, err
	}
	return &Blob{Type: r.Header.Get("Content-Type"), Data: data}, nil
}

// FormData parses a multipart or urlencoded body.
func (r *RawResponse) FormData() (*FormData, error) {
	data, err := r.consume()
	if err != nil {
		return nil, err
	}
	return ParseFormData(r.Header.Get("Content-Type"), data)
}

// JSON decodes the body into maps, slices and scalars. An empty body
// decodes to nil.
func (r *RawResponse) JSON() (any, error) {
	data, err := r.consume()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	return v, nil
}

// Text returns the body as a string.
func (r *RawResponse) Text() (string, error) {
	data, err := r.consume()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HTTPTransport performs requests with net/http. Bodies are read fully
// before Perform returns.
type HTTPTransport struct {
	client *http.Client
	jar    http.CookieJar
}

// NewHTTPTransport wraps client, or a zero http.Client when nil. Timeouts
// belong to the call, so client.Timeout is best left unset.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	jar := client.Jar
	if jar == nil {
		// cookiejar.New never returns an error
		jar, _ = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	}
	return &HTTPTransport{client: client, jar: jar}
}

// Perform implements Transport.
func (t *HTTPTransport) Perform(ctx context.Context, url string, opts TransportOptions) (*RawResponse, error) {
	header := opts.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	body, err := requestBody(opts.Body, header)
	if err != nil {
		return nil, err
	}
	applyCachePolicy(header, opts.Cache)
	if opts.ReferrerPolicy == "no-referrer" {
		header.Del("Referer")
	}

	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	timing := TimingInfo{StartTime: time.Now()}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, timingTrace(&timing)), method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header = header

	var redirected bool
	hc := *t.client
	hc.Jar = t.jar
	if opts.Credentials == CredentialsOmit {
		hc.Jar = nil
	}
	hc.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		switch opts.Redirect {
		case RedirectManual:
			return http.ErrUseLastResponse
		case RedirectError:
			return ErrRedirect
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		redirected = true
		return nil
	}

	httpResp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	timing.TotalTime = time.Since(timing.StartTime)

	transferStart := time.Now()
	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	timing.ContentTransferTime = time.Since(transferStart)

	if err := verifyIntegrity(opts.Integrity, data); err != nil {
		return nil, err
	}

	respType := "basic"
	if opts.Redirect == RedirectManual && httpResp.StatusCode >= 300 && httpResp.StatusCode < 400 {
		respType = "opaqueredirect"
	}

	return &RawResponse{
		OK:         httpResp.StatusCode >= 200 && httpResp.StatusCode < 300,
		Header:     httpResp.Header,
		Redirected: redirected,
		Status:     httpResp.StatusCode,
		StatusText: statusText(httpResp),
		Type:       respType,
		URL:        httpResp.Request.URL.String(),
		Body:       io.NopCloser(bytes.NewReader(data)),
		Timing:     timing,
	}, nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// requestBody turns an encoded body into a reader, setting the content type
// for blobs and forms when the caller did not.
func requestBody(body any, header http.Header) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case Blob:
		return requestBody(&b, header)
	case *Blob:
		if b.Type != "" && header.Get("Content-Type") == "" {
			header.Set("Content-Type", b.Type)
		}
		return bytes.NewReader(b.Data), nil
	case *FormData:
		data, contentType, err := b.Encode()
		if err != nil {
			return nil, err
		}
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", contentType)
		}
		return bytes.NewReader(data), nil
	case io.Reader:
		return b, nil
	}
	return nil, fmt.Errorf("unsupported request body type %T", body)
}

func applyCachePolicy(header http.Header, policy CachePolicy) {
	if header.Get("Cache-Control") != "" {
		return
	}
	switch policy {
	case CacheNoStore:
		header.Set("Cache-Control", "no-store")
		header.Set("Pragma", "no-cache")
	case CacheNoCache, CacheReload:
		header.Set("Cache-Control", "no-cache")
		header.Set("Pragma", "no-cache")
	case CacheForceCache:
		header.Set("Cache-Control", "max-stale")
	case CacheOnlyIfCached:
		header.Set("Cache-Control", "only-if-cached")
	}
}

var integrityHashes = map[string]struct {
	rank int
	new  func() hash.Hash
}{
	"sha256": {1, sha256.New},
	"sha384": {2, sha512.New384},
	"sha512": {3, sha512.New},
}

// verifyIntegrity checks data against subresource integrity metadata such as
// "sha384-<base64>". Only the strongest listed algorithm is considered; any of
// its digests may match. Metadata without a known algorithm passes.
func verifyIntegrity(metadata string, data []byte) error {
	best := 0
	digests := map[string][]string{}
	for _, token := range strings.Fields(metadata) {
		alg, digest, ok := strings.Cut(token, "-")
		if !ok {
			continue
		}
		h, known := integrityHashes[alg]
		if !known {
			continue
		}
		// options after '?' are reserved and ignored
		digest, _, _ = strings.Cut(digest, "?")
		digests[alg] = append(digests[alg], digest)
		if h.rank > best {
			best = h.rank
		}
	}
	if best == 0 {
		return nil
	}
	for alg, h := range integrityHashes {
		if h.rank != best {
			continue
		}
		sum := h.new()
		sum.Write(data)
		got := base64.StdEncoding.EncodeToString(sum.Sum(nil))
		for _, want := range digests[alg] {
			if want == got {
				return nil
			}
		}
		return fmt.Errorf("%w: %s digest mismatch", ErrIntegrity, alg)
	}
	return nil
}

// timingTrace records connection phases into timing. Dual-stack dialing
// may run the connect hooks concurrently, so every hook holds mu.
func timingTrace(timing *TimingInfo) *httptrace.ClientTrace {
	var (
		mu                               sync.Mutex
		dnsStart, connectStart, tlsStart time.Time
		connected                        bool
	)
	lastPhaseEnd := timing.StartTime

	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			mu.Lock()
			defer mu.Unlock()
			dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			mu.Lock()
			defer mu.Unlock()
			now := time.Now()
			timing.DNSLookupTime = now.Sub(dnsStart)
			lastPhaseEnd = now
		},
		ConnectStart: func(string, string) {
			mu.Lock()
			defer mu.Unlock()
			if connectStart.IsZero() {
				connectStart = time.Now()
			}
		},
		ConnectDone: func(_, _ string, err error) {
			mu.Lock()
			defer mu.Unlock()
			// only the first successful dial counts
			if err != nil || connected || connectStart.IsZero() {
				return
			}
			connected = true
			now := time.Now()
			timing.TCPConnectTime = now.Sub(connectStart)
			lastPhaseEnd = now
		},
		TLSHandshakeStart: func() {
			mu.Lock()
			defer mu.Unlock()
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil || tlsStart.IsZero() {
				return
			}
			now := time.Now()
			timing.TLSHandshakeTime = now.Sub(tlsStart)
			lastPhaseEnd = now
		},
		GotFirstResponseByte: func() {
			mu.Lock()
			defer mu.Unlock()
			// measured from the end of the last completed phase
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}
}

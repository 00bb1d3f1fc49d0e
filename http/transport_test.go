package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHTTPTransport_Perform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected method POST, got %s", r.Method)
		}
		if r.Header.Get("X-Test-Header") != "test-value" {
			t.Errorf("Expected header X-Test-Header: test-value, got %s", r.Header.Get("X-Test-Header"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Errorf("Expected body {\"a\":1}, got %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(nil)
	raw, err := transport.Perform(context.Background(), server.URL+"/items", TransportOptions{
		Method: "post",
		Header: http.Header{"X-Test-Header": {"test-value"}},
		Body:   `{"a":1}`,
	})
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	if !raw.OK {
		t.Error("Expected OK response")
	}
	if raw.Status != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, raw.Status)
	}
	if raw.StatusText != "Created" {
		t.Errorf("Expected status text Created, got %q", raw.StatusText)
	}
	if raw.Type != "basic" {
		t.Errorf("Expected type basic, got %q", raw.Type)
	}
	if raw.URL != server.URL+"/items" {
		t.Errorf("Expected URL %s/items, got %s", server.URL, raw.URL)
	}
	if raw.Timing.StartTime.IsZero() || raw.Timing.TotalTime <= 0 {
		t.Errorf("Expected timing to be recorded, got %+v", raw.Timing)
	}

	v, err := raw.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["id"] != float64(1) {
		t.Errorf("Expected {id:1}, got %v", v)
	}
}

func TestHTTPTransport_NonOKIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	raw, err := NewHTTPTransport(nil).Perform(context.Background(), server.URL, TransportOptions{})
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	if raw.OK || raw.Status != http.StatusInternalServerError {
		t.Errorf("Expected failed 500 response, got ok=%v status=%d", raw.OK, raw.Status)
	}
}

func TestHTTPTransport_Redirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	transport := NewHTTPTransport(nil)

	t.Run("follow", func(t *testing.T) {
		raw, err := transport.Perform(context.Background(), server.URL+"/old", TransportOptions{Redirect: RedirectFollow})
		if err != nil {
			t.Fatalf("Perform() error = %v", err)
		}
		if !raw.Redirected || raw.URL != server.URL+"/new" || raw.Status != http.StatusOK {
			t.Errorf("Expected followed redirect, got redirected=%v url=%s status=%d", raw.Redirected, raw.URL, raw.Status)
		}
	})

	t.Run("manual", func(t *testing.T) {
		raw, err := transport.Perform(context.Background(), server.URL+"/old", TransportOptions{Redirect: RedirectManual})
		if err != nil {
			t.Fatalf("Perform() error = %v", err)
		}
		if raw.Type != "opaqueredirect" || raw.Status != http.StatusFound || raw.Redirected {
			t.Errorf("Expected opaque redirect, got type=%s status=%d redirected=%v", raw.Type, raw.Status, raw.Redirected)
		}
	})

	t.Run("error", func(t *testing.T) {
		_, err := transport.Perform(context.Background(), server.URL+"/old", TransportOptions{Redirect: RedirectError})
		if !errors.Is(err, ErrRedirect) {
			t.Errorf("Expected ErrRedirect, got %v", err)
		}
	})
}

func TestHTTPTransport_Credentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if err != nil {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(c.Value))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	transport := NewHTTPTransport(nil)
	if _, err := transport.Perform(context.Background(), server.URL+"/login", TransportOptions{Credentials: CredentialsInclude}); err != nil {
		t.Fatalf("login error = %v", err)
	}

	tests := []struct {
		policy CredentialsPolicy
		want   string
	}{
		{CredentialsInclude, "abc"},
		{CredentialsSameOrigin, "abc"},
		{CredentialsOmit, "anonymous"},
	}
	for _, tt := range tests {
		raw, err := transport.Perform(context.Background(), server.URL+"/me", TransportOptions{Credentials: tt.policy})
		if err != nil {
			t.Fatalf("%s: Perform() error = %v", tt.policy, err)
		}
		text, _ := raw.Text()
		if text != tt.want {
			t.Errorf("%s: got %q, want %q", tt.policy, text, tt.want)
		}
	}
}

func TestHTTPTransport_Integrity(t *testing.T) {
	const payload = "alert(1)"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	sum := sha256.Sum256([]byte(payload))
	good := "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
	transport := NewHTTPTransport(nil)

	if _, err := transport.Perform(context.Background(), server.URL, TransportOptions{Integrity: good}); err != nil {
		t.Errorf("Expected matching digest to pass, got %v", err)
	}

	_, err := transport.Perform(context.Background(), server.URL, TransportOptions{Integrity: "sha256-AAAA"})
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("Expected ErrIntegrity, got %v", err)
	}

	// only the strongest algorithm counts
	_, err = transport.Perform(context.Background(), server.URL, TransportOptions{Integrity: good + " sha512-AAAA"})
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("Expected sha512 mismatch to fail, got %v", err)
	}

	if _, err := transport.Perform(context.Background(), server.URL, TransportOptions{Integrity: "md5-whatever"}); err != nil {
		t.Errorf("Expected unknown algorithms to be ignored, got %v", err)
	}
}

func TestHTTPTransport_RequestHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	form := NewFormData()
	form.Append("a", "1")
	_, err := NewHTTPTransport(nil).Perform(context.Background(), server.URL, TransportOptions{
		Method:         http.MethodPost,
		Header:         http.Header{"Referer": {"https://origin/"}},
		Body:           form,
		Cache:          CacheNoStore,
		ReferrerPolicy: "no-referrer",
	})
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	if !strings.HasPrefix(got.Get("Content-Type"), "multipart/form-data; boundary=") {
		t.Errorf("Expected multipart content type, got %q", got.Get("Content-Type"))
	}
	if got.Get("Cache-Control") != "no-store" {
		t.Errorf("Expected Cache-Control no-store, got %q", got.Get("Cache-Control"))
	}
	if got.Get("Referer") != "" {
		t.Errorf("Expected Referer to be removed, got %q", got.Get("Referer"))
	}
}

func TestHTTPTransport_BlobContentType(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	_, err := NewHTTPTransport(nil).Perform(context.Background(), server.URL, TransportOptions{
		Method: http.MethodPut,
		Body:   Blob{Type: "image/png", Data: []byte{0x89}},
	})
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("Expected image/png, got %q", contentType)
	}
}

func TestHTTPTransport_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTPTransport(nil).Perform(ctx, server.URL, TransportOptions{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestRawResponse_BodyUsed(t *testing.T) {
	raw := NewRawResponse(http.StatusOK, http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}, "a=1")
	form, err := raw.FormData()
	if err != nil {
		t.Fatalf("FormData() error = %v", err)
	}
	if form.Get("a") != "1" {
		t.Errorf("Expected a=1, got %q", form.Get("a"))
	}
	if _, err := raw.ArrayBuffer(); !errors.Is(err, ErrBodyUsed) {
		t.Errorf("Expected ErrBodyUsed, got %v", err)
	}
}

func TestRawResponse_EmptyJSON(t *testing.T) {
	v, err := NewRawResponse(http.StatusOK, nil, "  ").JSON()
	if err != nil || v != nil {
		t.Errorf("Expected nil, nil for empty body, got %v, %v", v, err)
	}
}

func TestTimingTrace_ConcurrentDials(t *testing.T) {
	timing := TimingInfo{StartTime: time.Now()}
	trace := timingTrace(&timing)

	var wg sync.WaitGroup
	for _, network := range []string{"tcp4", "tcp6"} {
		wg.Add(1)
		go func(network string) {
			defer wg.Done()
			trace.ConnectStart(network, "127.0.0.1:80")
			time.Sleep(time.Millisecond)
			trace.ConnectDone(network, "127.0.0.1:80", nil)
		}(network)
	}
	wg.Wait()
	trace.GotFirstResponseByte()

	if timing.TCPConnectTime <= 0 {
		t.Errorf("expected TCPConnectTime to be recorded, got %v", timing.TCPConnectTime)
	}
	if timing.TimeToFirstByte < 0 {
		t.Errorf("expected non-negative TimeToFirstByte, got %v", timing.TimeToFirstByte)
	}
}

func TestTimingTrace_FailedDialIgnored(t *testing.T) {
	timing := TimingInfo{StartTime: time.Now()}
	trace := timingTrace(&timing)

	trace.ConnectStart("tcp6", "[::1]:80")
	trace.ConnectDone("tcp6", "[::1]:80", errors.New("connection refused"))
	if timing.TCPConnectTime != 0 {
		t.Errorf("failed dial must not record connect time, got %v", timing.TCPConnectTime)
	}
}

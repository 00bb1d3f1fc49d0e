// Package http provides an ergonomic request wrapper over a pluggable
// transport, with the net/http adapter as default.
//
// This package is designed for programmatic use and provides:
//   - A client with inherited defaults configured through functional options
//   - URL templates with :name path parameters, query strings and a base URL
//   - Automatic JSON encoding of structured bodies
//   - Timeouts merged with caller cancellation, cleaned up on every exit path
//   - Before-request and after-response hooks
//   - A route facade that binds one URL template to verb endpoints
//
// Basic Usage:
//
//	client := http.NewClient(
//	    http.WithBaseURL("https://api.example.com"),
//	    http.WithTimeout(10*time.Second),
//	)
//
//	user, err := client.Get(ctx, "/users/:id", http.Query{"expand": "roles"},
//	    &http.RequestConfig{Params: http.Params{"id": 42}})
//	if err != nil {
//	    if resp, ok := http.AsResponse(err); ok {
//	        log.Printf("status %d, timeout %v", resp.Status, resp.IsTimeout)
//	    }
//	    return err
//	}
//
// Route Example:
//
//	users := client.Route("/users/:id")
//	getUser := http.Bind[User](users.GET())
//	u, err := getUser(ctx, http.Params{"id": 42})
//
// Custom Settlement:
//
// An after-response hook replaces the default policy (resolve OK bodies,
// reject everything else) and must settle the call itself:
//
//	client := http.NewClient(http.WithAfterResponse(func(resp *http.Response, s http.Settler) {
//	    if resp.Status == 404 {
//	        s.Resolve(nil)
//	        return
//	    }
//	    http.SettleDefault(resp, s)
//	}))
//
// Thread Safety:
//
// Client is safe for concurrent use. Multiple goroutines may invoke methods
// on a Client simultaneously.
package http

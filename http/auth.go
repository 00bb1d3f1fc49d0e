package http

import "net/http"

// Credentials are applied to the outgoing headers of every call.
type Credentials interface {
	Apply(header http.Header)
}

// AuthToken is sent verbatim as the Authorization header.
type AuthToken string

// Apply sets the Authorization header. An empty token sets nothing.
func (t AuthToken) Apply(header http.Header) {
	if t != "" {
		header.Set("Authorization", string(t))
	}
}

// Bearer returns an AuthToken of the form "Bearer <token>".
func Bearer(token string) AuthToken {
	return AuthToken("Bearer " + token)
}

// HeaderSet copies every entry into the outgoing headers, replacing existing
// values.
type HeaderSet http.Header

// Apply sets each header of h.
func (h HeaderSet) Apply(header http.Header) {
	for k, vv := range h {
		header.Del(k)
		for _, v := range vv {
			header.Add(k, v)
		}
	}
}

// AuthProvider is invoked once per call. Returning nil sends no credentials.
type AuthProvider func() Credentials

// StaticAuth returns a provider that always yields creds.
func StaticAuth(creds Credentials) AuthProvider {
	return func() Credentials { return creds }
}

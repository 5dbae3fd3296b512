// Package credentials provides the http.RoundTripper the core consumes
// for an authenticated connection, without holding or signing requests
// itself (spec §1/§6 place credential holding out of the core's scope).
package credentials

import "net/http"

// APIKeyTransport injects a static API key header on every outbound
// request. HeaderName is the header to set (e.g. "Authorization",
// "x-api-key"). Prefix is prepended to Key (e.g. "Bearer " for
// Authorization headers).
type APIKeyTransport struct {
	Key        string
	HeaderName string
	Prefix     string
	Base       http.RoundTripper
}

// RoundTrip clones the request and sets the auth header.
func (t *APIKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r2 := r.Clone(r.Context())
	r2.Header.Set(t.HeaderName, t.Prefix+t.Key)
	return t.base().RoundTrip(r2)
}

func (t *APIKeyTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewClient returns an *http.Client that authenticates every request with
// key via the Authorization header.
func NewClient(key string) *http.Client {
	return &http.Client{Transport: &APIKeyTransport{Key: key, HeaderName: "Authorization", Prefix: "Bearer "}}
}

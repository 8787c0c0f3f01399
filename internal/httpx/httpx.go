// Package httpx builds the outbound HTTP clients used to call the matching
// and geocoding services. Timeouts are owned here; callers do not retry.
package httpx

import (
	"errors"
	"net/http"
	"time"
)

// UserAgent is sent on every outbound request that does not set its own.
const UserAgent = "match-results/1.0"

// Transport sets the User-Agent header and delegates to Base.
type Transport struct {
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Base == nil {
		return nil, errors.New("httpx: nil base transport")
	}
	if req.Header.Get("User-Agent") != "" {
		return t.Base.RoundTrip(req)
	}
	// Clone so the caller's request is never mutated.
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)
	return t.Base.RoundTrip(r)
}

// NewClient returns an *http.Client whose whole request lifetime is bounded
// by timeout. Connection-level timeouts are fixed.
func NewClient(timeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{
		Transport: &Transport{Base: base},
		Timeout:   timeout,
	}
}

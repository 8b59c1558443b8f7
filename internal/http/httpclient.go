package http

import (
	"crypto/tls"
	"net/http"
	"time"
)

// DefaultUserAgent is sent on every outbound request unless overridden
const DefaultUserAgent = "arq-generator"

// HTTPClientOptions configures HTTP client creation
type HTTPClientOptions struct {
	// Timeout is the request timeout duration (0 means no timeout)
	Timeout time.Duration
	// SkipSSLVerify disables SSL certificate verification (use with caution)
	SkipSSLVerify bool
	// UserAgent replaces DefaultUserAgent when set
	UserAgent string
}

// NewHTTPClient creates an HTTP client with the specified options.
// Requests that already carry a User-Agent header keep it.
func NewHTTPClient(opts HTTPClientOptions) *http.Client {
	var base http.RoundTripper = http.DefaultTransport
	if opts.SkipSSLVerify {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}

	agent := opts.UserAgent
	if agent == "" {
		agent = DefaultUserAgent
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &userAgentTransport{base: base, agent: agent},
	}
}

type userAgentTransport struct {
	base  http.RoundTripper
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(clone)
}

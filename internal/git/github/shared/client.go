package shared

import (
	"net/http"
	"time"

	"github.com/google/go-github/v80/github"

	httputil "arq-generator/internal/http"
)

// RequestTimeout bounds every metadata lookup against the GitHub API
const RequestTimeout = 30 * time.Second

// NewHTTPClient returns the base client shared by the REST and GraphQL inspectors
func NewHTTPClient() *http.Client {
	return httputil.NewHTTPClient(httputil.HTTPClientOptions{Timeout: RequestTimeout})
}

// NewRESTClient creates a GitHub REST client; anonymous when token is empty
func NewRESTClient(token string) *github.Client {
	client := github.NewClient(NewHTTPClient())
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

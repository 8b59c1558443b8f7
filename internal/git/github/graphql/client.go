package graphql

import (
	"context"
	"net/http"

	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	ghshared "arq-generator/internal/git/github/shared"
)

// newClient creates a new GitHub GraphQL client with authentication
func newClient(token string) *githubv4.Client {
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	// oauth2 picks the base transport up from the context
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, ghshared.NewHTTPClient())
	httpClient := oauth2.NewClient(ctx, src)
	return githubv4.NewClient(httpClient)
}

// newEnterpriseClient targets a custom GraphQL endpoint
func newEnterpriseClient(url string, httpClient *http.Client) *githubv4.Client {
	return githubv4.NewEnterpriseClient(url, httpClient)
}

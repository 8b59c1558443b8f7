package gitlab

import (
	"time"

	"gitlab.com/gitlab-org/api/client-go"

	"arq-generator/internal/config"
	httputil "arq-generator/internal/http"
)

// requestTimeout bounds every metadata lookup against the GitLab API
const requestTimeout = 30 * time.Second

func NewClient(cfg *config.Config) (*gitlab.Client, error) {
	httpClient := httputil.NewHTTPClient(httputil.HTTPClientOptions{
		Timeout:       requestTimeout,
		SkipSSLVerify: cfg.GitLabSkipSSLVerify,
	})
	return gitlab.NewClient(cfg.GitLabToken, gitlab.WithBaseURL(cfg.GitLabBaseURL), gitlab.WithHTTPClient(httpClient))
}

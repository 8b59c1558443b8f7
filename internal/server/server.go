package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/semaphore"

	"arq-generator/internal/config"
	"arq-generator/internal/llm/providers"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish once
// the server is asked to stop
const ShutdownTimeout = 30 * time.Second

// Analyzer is the pipeline the service exposes
type Analyzer interface {
	AnalyzeRepository(ctx context.Context, url string, depth int) (string, error)
	CheckGenerator(ctx context.Context) error
	Generator() providers.LLMClient
}

type Server struct {
	analyzer   Analyzer
	apiKey     string
	httpServer *http.Server
	slots      *semaphore.Weighted
}

func New(cfg *config.Config, analyzer Analyzer) *Server {
	s := &Server{
		analyzer: analyzer,
		apiKey:   cfg.APIKey,
		slots:    semaphore.NewWeighted(int64(max(cfg.MaxConcurrentAnalyses, 1))),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with CORS applied; /analyze also
// requires the API key when one is configured
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /analyze", s.requireAPIKey(http.HandlerFunc(s.handleAnalyze)))
	mux.HandleFunc("GET /health", s.handleHealth)
	return cors(mux)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", ln.Addr().String(), "auth", s.apiKey != "")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return <-errCh
}

package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"arq-generator/internal/scanner"
)

// maxBodyBytes caps the /analyze request body
const maxBodyBytes = 64 * 1024

type AnalyzeRequest struct {
	RepoURL string `json:"repo_url"`
	Depth   *int   `json:"depth,omitempty"`
}

type AnalyzeResponse struct {
	Mermaid string `json:"mermaid"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Generator string `json:"generator"`
	// Ollama mirrors Generator for older clients when the provider is ollama
	Ollama   string `json:"ollama,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return
	}

	req.RepoURL = strings.TrimSpace(req.RepoURL)
	if req.RepoURL == "" {
		writeError(w, http.StatusUnprocessableEntity, "repo_url is required")
		return
	}

	depth := scanner.MinDepth
	if req.Depth != nil {
		depth = *req.Depth
	}
	if err := scanner.ValidateDepth(depth); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	if err := s.slots.Acquire(ctx, 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for an analysis slot")
		return
	}
	defer s.slots.Release(1)

	start := time.Now()
	mermaid, err := s.analyzer.AnalyzeRepository(ctx, req.RepoURL, depth)
	if err != nil {
		status := statusFor(err)
		slog.Error("Analysis failed", "url", req.RepoURL, "depth", depth, "status", status, "error", err)
		writeError(w, status, err.Error())
		return
	}

	slog.Info("Analysis completed", "url", req.RepoURL, "depth", depth, "duration", time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, AnalyzeResponse{Mermaid: mermaid})
}

// handleHealth always answers 200; generator state is reported in the body
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	generator := s.analyzer.Generator()

	state := "connected"
	if err := s.analyzer.CheckGenerator(r.Context()); err != nil {
		slog.Debug("Generator health check failed", "error", err)
		state = "disconnected"
	}

	resp := HealthResponse{
		Status:    "ok",
		Generator: state,
		Provider:  generator.Name(),
		Model:     generator.Model(),
	}
	if resp.Provider == "ollama" {
		resp.Ollama = state
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

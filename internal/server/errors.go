package server

import (
	"errors"
	"net/http"

	llmerrors "arq-generator/internal/llm/errors"
	"arq-generator/internal/repo"
	"arq-generator/internal/scanner"
)

// statusFor maps pipeline errors to HTTP status codes. Unavailable is checked
// before timeout since a timed-out health check reports unavailable.
func statusFor(err error) int {
	var (
		invalidURL *repo.InvalidURLError
		cloneErr   *repo.CloneError
		sizeErr    *repo.SizeLimitError
	)

	switch {
	case errors.As(err, &invalidURL), errors.As(err, &cloneErr), errors.As(err, &sizeErr):
		return http.StatusBadRequest
	case errors.Is(err, scanner.ErrInvalidDepth):
		return http.StatusUnprocessableEntity
	case llmerrors.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case llmerrors.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, llmerrors.ErrEmptyResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

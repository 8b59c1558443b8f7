package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"arq-generator/internal/config"
)

// Setup initializes the application logger and installs it as the slog default.
// Logs go to stderr so the analyze command can keep stdout for the diagram.
func Setup(cfg *config.Config) *slog.Logger {
	logger := New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	// Set as default logger for the entire application
	slog.SetDefault(logger)

	return logger
}

// New builds a logger writing to w with the given format and level
func New(w io.Writer, format, level string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default: // "text" or empty (already validated in config.go)
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler).With("service", "arq-generator")
}

// parseLogLevel converts string log level to slog.Level
// Note: Input is validated in config.go, so only valid values reach this function
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "": // empty defaults to info
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

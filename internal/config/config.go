package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// valid log formats, levels and model providers
var (
	validLogFormats     = []string{"text", "json"}
	validLogLevels      = []string{"debug", "info", "warn", "error"}
	validModelProviders = []string{"ollama", "llama", "gemini"}
)

// Providers that talk to a self-hosted endpoint and need no user key
var keylessProviders = []string{"ollama"}

// default endpoints and models per provider
var (
	defaultModelAPI = map[string]string{
		"ollama": "http://localhost:11434",
	}
	defaultModelID = map[string]string{
		"ollama": "llama3.2:3b-instruct-q4_0",
		"gemini": "gemini-2.5-flash",
	}
)

type Config struct {
	APIKey                    string
	CloneTimeoutSeconds       int
	GitBinary                 string
	GitHubToken               string
	GitHubUseGraphQL          bool
	GitLabBaseURL             string
	GitLabSkipSSLVerify       bool
	GitLabToken               string
	ListenAddr                string
	LogFormat                 string
	LogLevel                  string
	MaxConcurrentAnalyses     int
	MaxRepoSizeMB             int
	ModelAPI                  string
	ModelHealthTimeoutSeconds int
	ModelID                   string
	ModelMaxResponseTokens    int
	ModelProvider             string
	ModelSkipSSLVerify        bool
	ModelTemperature          float64
	ModelTimeoutSeconds       int
	ModelUserKey              string
	RemotePreflight           bool
	Rules                     Rules
}

// Load creates a new Config instance from environment variables and validates it.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Parse service configuration
	apiKey := os.Getenv("ARQ_API_KEY")
	listenAddr := getEnvOrDefault("ARQ_LISTEN_ADDR", ":8000")
	gitBinary := getEnvOrDefault("ARQ_GIT_BINARY", "git")

	maxRepoSizeMB, err := parseIntEnvOrDefault("ARQ_MAX_REPO_SIZE_MB", 100, 1, 100000)
	if err != nil {
		return nil, err
	}
	maxConcurrent, err := parseIntEnvOrDefault("ARQ_MAX_CONCURRENT_ANALYSES", 2, 1, 1024)
	if err != nil {
		return nil, err
	}
	cloneTimeout, err := parseIntEnvOrDefault("ARQ_CLONE_TIMEOUT_SECONDS", 300, 1, 86400)
	if err != nil {
		return nil, err
	}

	// Parse Git platform configuration
	remotePreflight, err := parseBoolEnvOrDefault("ARQ_REMOTE_PREFLIGHT", false)
	if err != nil {
		return nil, err
	}
	gitHubToken := os.Getenv("ARQ_GITHUB_TOKEN")
	gitHubUseGraphQL, err := parseBoolEnvOrDefault("ARQ_GITHUB_USE_GRAPHQL", false)
	if err != nil {
		return nil, err
	}
	gitLabBaseURL := getEnvOrDefault("ARQ_GITLAB_BASE_URL", "https://gitlab.com")
	gitLabToken := os.Getenv("ARQ_GITLAB_TOKEN")
	gitLabSkipSSL, err := parseBoolEnvOrDefault("ARQ_GITLAB_SKIP_SSL_VERIFY", false)
	if err != nil {
		return nil, err
	}

	// Parse logging configuration
	logFormat := os.Getenv("ARQ_LOG_FORMAT")
	logLevel := os.Getenv("ARQ_LOG_LEVEL")

	// Parse model configuration
	modelProvider := strings.ToLower(getEnvOrDefault("ARQ_MODEL_PROVIDER", "ollama"))
	prefix := strings.ToUpper(modelProvider)
	modelAPI := getEnvOrDefault(fmt.Sprintf("ARQ_%s_MODEL_API", prefix), defaultModelAPI[modelProvider])
	modelID := getEnvOrDefault(fmt.Sprintf("ARQ_%s_MODEL_ID", prefix), defaultModelID[modelProvider])
	modelUserKey := os.Getenv(fmt.Sprintf("ARQ_%s_USER_KEY", prefix))

	modelSkipSSL, err := parseBoolEnvOrDefault("ARQ_MODEL_SKIP_SSL_VERIFY", false)
	if err != nil {
		return nil, err
	}
	modelMaxResponseTokens, err := parseIntEnvOrDefault("ARQ_MODEL_MAX_RESPONSE_TOKENS", 2000, 1, 1000000)
	if err != nil {
		return nil, err
	}
	modelTimeoutSeconds, err := parseIntEnvOrDefault("ARQ_MODEL_TIMEOUT_SECONDS", 1200, 1, 86400)
	if err != nil {
		return nil, err
	}
	modelHealthTimeout, err := parseIntEnvOrDefault("ARQ_MODEL_HEALTH_TIMEOUT_SECONDS", 5, 1, 600)
	if err != nil {
		return nil, err
	}
	modelTemperature, err := parseFloatEnvOrDefault("ARQ_MODEL_TEMPERATURE", 0.1, 0, 2)
	if err != nil {
		return nil, err
	}

	// Parse pipeline rules
	rules, err := LoadRules(os.Getenv("ARQ_RULES_FILE"))
	if err != nil {
		return nil, err
	}

	// Build config struct
	cfg := &Config{
		APIKey:                    apiKey,
		CloneTimeoutSeconds:       cloneTimeout,
		GitBinary:                 gitBinary,
		GitHubToken:               gitHubToken,
		GitHubUseGraphQL:          gitHubUseGraphQL,
		GitLabBaseURL:             gitLabBaseURL,
		GitLabSkipSSLVerify:       gitLabSkipSSL,
		GitLabToken:               gitLabToken,
		ListenAddr:                listenAddr,
		LogFormat:                 logFormat,
		LogLevel:                  logLevel,
		MaxConcurrentAnalyses:     maxConcurrent,
		MaxRepoSizeMB:             maxRepoSizeMB,
		ModelAPI:                  modelAPI,
		ModelHealthTimeoutSeconds: modelHealthTimeout,
		ModelID:                   modelID,
		ModelMaxResponseTokens:    modelMaxResponseTokens,
		ModelProvider:             modelProvider,
		ModelSkipSSLVerify:        modelSkipSSL,
		ModelTemperature:          modelTemperature,
		ModelTimeoutSeconds:       modelTimeoutSeconds,
		ModelUserKey:              modelUserKey,
		RemotePreflight:           remotePreflight,
		Rules:                     *rules,
	}

	// Validate configuration
	if err := validateConfig(cfg, prefix); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default if not set
func getEnvOrDefault(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// parseIntEnvOrDefault parses an integer environment variable with range validation or returns a default value if not set
func parseIntEnvOrDefault(key string, defaultVal, min, max int) (int, error) {
	str, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal, nil
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer, got: %s", key, str)
	}

	if val < min || val > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, val)
	}

	return val, nil
}

// parseFloatEnvOrDefault parses a float environment variable with range validation or returns a default value if not set
func parseFloatEnvOrDefault(key string, defaultVal, min, max float64) (float64, error) {
	str, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal, nil
	}

	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number, got: %s", key, str)
	}

	if val < min || val > max {
		return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, val)
	}

	return val, nil
}

// parseBoolEnvOrDefault parses a boolean environment variable or returns a default value if not set
func parseBoolEnvOrDefault(key string, defaultVal bool) (bool, error) {
	str, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal, nil
	}

	val, err := strconv.ParseBool(str)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean, got: %s", key, str)
	}

	return val, nil
}

// validateConfig performs all validation on the loaded configuration
func validateConfig(cfg *Config, modelProviderPrefix string) error {

	// Validate logging configuration
	if cfg.LogFormat != "" {
		if !slices.Contains(validLogFormats, strings.ToLower(cfg.LogFormat)) {
			return fmt.Errorf("ARQ_LOG_FORMAT must be one of: %v; got: %s", validLogFormats, cfg.LogFormat)
		}
	}
	if cfg.LogLevel != "" {
		if !slices.Contains(validLogLevels, strings.ToLower(cfg.LogLevel)) {
			return fmt.Errorf("ARQ_LOG_LEVEL must be one of: %v; got: %s", validLogLevels, cfg.LogLevel)
		}
	}

	// Validate model configuration
	if !slices.Contains(validModelProviders, cfg.ModelProvider) {
		return fmt.Errorf("ARQ_MODEL_PROVIDER must be one of: %v; got: %s", validModelProviders, cfg.ModelProvider)
	}
	if cfg.ModelAPI == "" && cfg.ModelProvider != "gemini" {
		return fmt.Errorf("ARQ_%s_MODEL_API environment variable is required", modelProviderPrefix)
	}
	if cfg.ModelID == "" {
		return fmt.Errorf("ARQ_%s_MODEL_ID environment variable is required", modelProviderPrefix)
	}
	if cfg.ModelUserKey == "" && !slices.Contains(keylessProviders, cfg.ModelProvider) {
		return fmt.Errorf("ARQ_%s_USER_KEY environment variable is required", modelProviderPrefix)
	}

	// Validate Git platform configuration
	if cfg.GitLabToken != "" && cfg.GitLabBaseURL == "" {
		return fmt.Errorf("ARQ_GITLAB_BASE_URL must not be empty when ARQ_GITLAB_TOKEN is provided")
	}

	return nil
}

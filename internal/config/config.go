package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the MentorMind chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	// Persona platform (Sensay-compatible API).
	SensayBaseURL   string
	SensayOrgSecret string
	SensayTimeout   time.Duration

	// Generation model assigned to newly created personas. Fixed by
	// configuration, never caller-supplied.
	ReplicaLLMProvider string
	ReplicaLLMModel    string

	// Response enrichment (Gemini generative language API).
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModel       string
	GeminiTimeout     time.Duration
	EnrichmentEnabled bool

	// Optional transcript persistence. Empty means in-memory only.
	DatabaseURL string
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "mentormind"),
		SensayBaseURL:            envOrDefault("SENSAY_BASE_URL", "https://api.sensay.io/v1"),
		SensayOrgSecret:          trimmedEnv("SENSAY_ORG_SECRET"),
		ReplicaLLMProvider:       envOrDefault("REPLICA_LLM_PROVIDER", "openai"),
		ReplicaLLMModel:          envOrDefault("REPLICA_LLM_MODEL", "gpt-4o"),
		GeminiAPIKey:             trimmedEnv("GEMINI_API_KEY"),
		GeminiBaseURL:            envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:              envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		DatabaseURL:              trimmedEnv("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		SensayTimeout:            30 * time.Second,
		GeminiTimeout:            20 * time.Second,
		EnrichmentEnabled:        true,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SensayTimeout, err = durationFromEnv("SENSAY_TIMEOUT", cfg.SensayTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.GeminiTimeout, err = durationFromEnv("GEMINI_TIMEOUT", cfg.GeminiTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.EnrichmentEnabled, err = boolFromEnv("ENRICHMENT_ENABLED", cfg.EnrichmentEnabled)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.SensayTimeout <= 0 {
		return Config{}, fmt.Errorf("SENSAY_TIMEOUT must be positive")
	}
	if cfg.GeminiTimeout <= 0 {
		return Config{}, fmt.Errorf("GEMINI_TIMEOUT must be positive")
	}
	if cfg.EnrichmentEnabled && cfg.GeminiAPIKey == "" {
		// Enrichment is best-effort; a missing key downgrades to pass-through
		// instead of failing startup.
		cfg.EnrichmentEnabled = false
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.SensayBaseURL != "https://api.sensay.io/v1" {
		t.Fatalf("SensayBaseURL = %q, want default", cfg.SensayBaseURL)
	}
	if cfg.ReplicaLLMProvider != "openai" || cfg.ReplicaLLMModel != "gpt-4o" {
		t.Fatalf("replica llm = %q/%q, want openai/gpt-4o", cfg.ReplicaLLMProvider, cfg.ReplicaLLMModel)
	}
	if cfg.SensayTimeout != 30*time.Second {
		t.Fatalf("SensayTimeout = %v, want 30s", cfg.SensayTimeout)
	}
}

func TestLoadEnrichmentDisabledWithoutKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("ENRICHMENT_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EnrichmentEnabled {
		t.Fatalf("EnrichmentEnabled = true without GEMINI_API_KEY, want false")
	}

	t.Setenv("GEMINI_API_KEY", "test-key")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.EnrichmentEnabled {
		t.Fatalf("EnrichmentEnabled = false with key present, want true")
	}
}

func TestLoadRejectsShortInactivityTimeout(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_TIMEOUT", "1s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want inactivity timeout validation error")
	}
}

func TestLoadParsesExplicitDurations(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("SENSAY_TIMEOUT", "5s")
	t.Setenv("GEMINI_TIMEOUT", "7s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SensayTimeout != 5*time.Second {
		t.Fatalf("SensayTimeout = %v, want 5s", cfg.SensayTimeout)
	}
	if cfg.GeminiTimeout != 7*time.Second {
		t.Fatalf("GeminiTimeout = %v, want 7s", cfg.GeminiTimeout)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"SENSAY_BASE_URL",
		"SENSAY_ORG_SECRET",
		"SENSAY_TIMEOUT",
		"REPLICA_LLM_PROVIDER",
		"REPLICA_LLM_MODEL",
		"GEMINI_API_KEY",
		"GEMINI_BASE_URL",
		"GEMINI_MODEL",
		"GEMINI_TIMEOUT",
		"ENRICHMENT_ENABLED",
		"DATABASE_URL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

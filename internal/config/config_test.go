package config

import (
	"errors"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_MODE", "TUTOR_PROVIDER", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION",
		"GEMINI_API_KEY", "GEMINI_MODEL", "TUTOR_TEMPERATURE", "TUTOR_GROUNDING", "TUTOR_LINKIFY",
		"GATEWAY_TIMEOUT", "SESSION_IDLE_TTL", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY",
		"ARK_MODEL", "OTEL_ENABLED", "OTEL_SAMPLER_RATIO", "OTEL_EXPORTER_OTLP_INSECURE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.AI.Provider != ProviderVertex {
		t.Fatalf("unexpected provider: %s", cfg.AI.Provider)
	}
	if cfg.AI.Location != "global" {
		t.Fatalf("unexpected location: %s", cfg.AI.Location)
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected model: %s", cfg.AI.Model)
	}
	if cfg.Tutor.Temperature != 0.9 {
		t.Fatalf("unexpected temperature: %v", cfg.Tutor.Temperature)
	}
	if !cfg.Tutor.SearchGrounding || !cfg.Tutor.Linkify {
		t.Fatalf("expected grounding and linkify enabled by default")
	}
	if cfg.AI.Timeout != 60*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.AI.Timeout)
	}
}

func TestLoadPortWithHost(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
}

func TestLoadRejectsInvalidTemperature(t *testing.T) {
	clearEnv(t)
	t.Setenv("TUTOR_TEMPERATURE", "5")

	_, err := Load()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Key != "TUTOR_TEMPERATURE" {
		t.Fatalf("unexpected key: %s", cfgErr.Key)
	}
}

func TestLoadRejectsInvalidBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("TUTOR_GROUNDING", "sometimes")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid bool")
	}
}

func TestValidateVertexRequiresProject(t *testing.T) {
	cfg := AIConfig{Provider: ProviderVertex, Location: "global"}

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Key != "GOOGLE_CLOUD_PROJECT" {
		t.Fatalf("unexpected key: %s", cfgErr.Key)
	}

	cfg.Project = "eduai-478610"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateArkCredentials(t *testing.T) {
	cfg := AIConfig{Provider: ProviderArk, ArkModel: "doubao"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without ark credentials")
	}

	cfg.ArkAccessKey = "ak"
	cfg.ArkSecretKey = "sk"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ModelName() != "doubao" {
		t.Fatalf("unexpected model name: %s", cfg.ModelName())
	}
}

func TestValidateUnknownProvider(t *testing.T) {
	if err := (AIConfig{Provider: "openai"}).Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

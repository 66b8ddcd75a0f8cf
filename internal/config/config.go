package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider names accepted by TUTOR_PROVIDER.
const (
	ProviderVertex = "vertex"
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// ConfigurationError reports missing or invalid startup configuration. It is
// fatal: the process must not start serving with it.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// Config aggregates every setting of the service.
type Config struct {
	Server        ServerConfig
	Log           LogConfig
	AI            AIConfig
	Tutor         TutorConfig
	Observability ObservabilityConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	tutor, err := loadTutorConfig()
	if err != nil {
		return nil, err
	}

	obs, err := loadObservabilityConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:        server,
		Log:           LogConfig{Mode: getEnvOrDefault("LOG_MODE", "dev")},
		AI:            ai,
		Tutor:         tutor,
		Observability: obs,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// LogConfig selects the zap configuration.
type LogConfig struct {
	Mode string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, &ConfigurationError{Key: "PORT", Reason: fmt.Sprintf("invalid value %q", port)}
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the model gateway transport.
type AIConfig struct {
	Provider string

	// Vertex AI / Gemini API.
	Project  string
	Location string
	APIKey   string
	Model    string

	// Ark (eino).
	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	Timeout time.Duration
}

// Validate reports a ConfigurationError when the selected provider lacks its
// credentials.
func (c AIConfig) Validate() error {
	switch c.Provider {
	case ProviderVertex:
		if c.Project == "" {
			return &ConfigurationError{Key: "GOOGLE_CLOUD_PROJECT", Reason: "required for the vertex provider"}
		}
		if c.Location == "" {
			return &ConfigurationError{Key: "GOOGLE_CLOUD_LOCATION", Reason: "required for the vertex provider"}
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "required for the gemini provider"}
		}
	case ProviderArk:
		if c.ArkModel == "" {
			return &ConfigurationError{Key: "ARK_MODEL", Reason: "required for the ark provider"}
		}
		if c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "") {
			return &ConfigurationError{Key: "ARK_API_KEY", Reason: "provide ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY"}
		}
	default:
		return &ConfigurationError{Key: "TUTOR_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", c.Provider)}
	}
	return nil
}

// ModelName returns the model identifier for the selected provider.
func (c AIConfig) ModelName() string {
	if c.Provider == ProviderArk {
		return c.ArkModel
	}
	return c.Model
}

// NewGenAIClient creates the Vertex AI or Gemini API client.
func (c AIConfig) NewGenAIClient(ctx context.Context) (*genai.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{}
	switch c.Provider {
	case ProviderVertex:
		cc.Backend = genai.BackendVertexAI
		cc.Project = c.Project
		cc.Location = c.Location
	case ProviderGemini:
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = c.APIKey
	default:
		return nil, &ConfigurationError{Key: "TUTOR_PROVIDER", Reason: fmt.Sprintf("provider %q is not served by genai", c.Provider)}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &ConfigurationError{Key: "TUTOR_PROVIDER", Reason: fmt.Sprintf("initialize genai client: %v", err)}
	}
	return client, nil
}

// NewChatModel creates the Ark chat model used by the eino gateway.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk {
		return nil, &ConfigurationError{Key: "TUTOR_PROVIDER", Reason: fmt.Sprintf("provider %q is not served by ark", c.Provider)}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.ArkBaseURL,
		Region:    c.ArkRegion,
		APIKey:    c.ArkAPIKey,
		AccessKey: c.ArkAccessKey,
		SecretKey: c.ArkSecretKey,
		Model:     c.ArkModel,
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	timeout, err := parseDurationEnv("GATEWAY_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("TUTOR_PROVIDER", ProviderVertex))
	project := strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))

	return AIConfig{
		Provider:     provider,
		Project:      project,
		Location:     getEnvOrDefault("GOOGLE_CLOUD_LOCATION", "global"),
		APIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Timeout:      timeout,
	}, nil
}

// TutorConfig controls the conversation behaviour.
type TutorConfig struct {
	Temperature     float32
	SearchGrounding bool
	Linkify         bool
	SessionIdleTTL  time.Duration
}

func loadTutorConfig() (TutorConfig, error) {
	temperature := float32(0.9)
	if override, err := parseOptionalFloatEnv("TUTOR_TEMPERATURE"); err != nil {
		return TutorConfig{}, err
	} else if override != nil {
		if *override < 0 || *override > 2 {
			return TutorConfig{}, &ConfigurationError{Key: "TUTOR_TEMPERATURE", Reason: fmt.Sprintf("%v is outside [0, 2]", *override)}
		}
		temperature = float32(*override)
	}

	grounding, err := parseBoolEnv("TUTOR_GROUNDING", true)
	if err != nil {
		return TutorConfig{}, err
	}

	linkify, err := parseBoolEnv("TUTOR_LINKIFY", true)
	if err != nil {
		return TutorConfig{}, err
	}

	ttl, err := parseDurationEnv("SESSION_IDLE_TTL", 2*time.Hour)
	if err != nil {
		return TutorConfig{}, err
	}

	return TutorConfig{
		Temperature:     temperature,
		SearchGrounding: grounding,
		Linkify:         linkify,
		SessionIdleTTL:  ttl,
	}, nil
}

// ObservabilityConfig controls OpenTelemetry tracing.
type ObservabilityConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

func loadObservabilityConfig() (ObservabilityConfig, error) {
	enabled, err := parseBoolEnv("OTEL_ENABLED", false)
	if err != nil {
		return ObservabilityConfig{}, err
	}

	insecure, err := parseBoolEnv("OTEL_EXPORTER_OTLP_INSECURE", false)
	if err != nil {
		return ObservabilityConfig{}, err
	}

	ratio := 1.0
	if override, err := parseOptionalFloatEnv("OTEL_SAMPLER_RATIO"); err != nil {
		return ObservabilityConfig{}, err
	} else if override != nil {
		ratio = min(max(*override, 0), 1)
	}

	return ObservabilityConfig{
		Enabled:     enabled,
		ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "eduai-tutor"),
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    insecure,
		SampleRatio: ratio,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid value %q: %v", raw, err)}
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid value %q: %v", value, err)}
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid duration %q: %v", raw, err)}
	}
	if val < 0 {
		return 0, &ConfigurationError{Key: key, Reason: "must not be negative"}
	}
	return val, nil
}

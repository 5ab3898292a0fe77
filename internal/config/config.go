package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config holds the full application configuration.
type Config struct {
	Leads     LeadsConfig     `yaml:"leads" mapstructure:"leads"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// LeadsConfig configures the upstream iLead service.
type LeadsConfig struct {
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	BearerToken        string  `yaml:"bearer_token" mapstructure:"bearer_token"`
	ClientID           string  `yaml:"client_id" mapstructure:"client_id"`
	GroupBy            string  `yaml:"group_by" mapstructure:"group_by"`
	MapRelatedEntities string  `yaml:"map_related_entities" mapstructure:"map_related_entities"`
	Limit              string  `yaml:"limit" mapstructure:"limit"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts        int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RateLimit          float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// Timeout returns the per-request timeout.
func (c LeadsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LLMConfig configures the chat model.
type LLMConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"`
	GeminiAPIKey     string `yaml:"gemini_api_key" mapstructure:"gemini_api_key"`
	GeminiModel      string `yaml:"gemini_model" mapstructure:"gemini_model"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	AnthropicModel   string `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	MaxTokens        int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxToolRounds    int    `yaml:"max_tool_rounds" mapstructure:"max_tool_rounds"`
	SystemPromptPath string `yaml:"system_prompt_path" mapstructure:"system_prompt_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// RequestTimeout returns the per-request handler timeout.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the plain variable names older deployments
// export. The SIRRUS_ prefixed name always wins.
var legacyEnv = map[string]string{
	"leads.base_url":             "API_BASE_URL",
	"leads.bearer_token":         "BEARER_TOKEN",
	"leads.client_id":            "CLIENT_ID",
	"leads.group_by":             "GROUP_BY",
	"leads.map_related_entities": "MAP_RELATED_ENTITIES",
	"leads.limit":                "LIMIT",
	"llm.gemini_api_key":         "GEMINI_API_KEY",
	"llm.anthropic_api_key":      "ANTHROPIC_API_KEY",
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional; variables already set are not overridden.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SIRRUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "SIRRUS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("leads.base_url", "https://qa.sirrus.ai/api/ilead-service/v1")
	v.SetDefault("leads.bearer_token", "")
	v.SetDefault("leads.client_id", "TCG-WEB-APP")
	v.SetDefault("leads.group_by", "leadStatus")
	v.SetDefault("leads.map_related_entities", "true")
	v.SetDefault("leads.limit", "9999999999")
	v.SetDefault("leads.timeout_secs", 30)
	v.SetDefault("leads.max_attempts", 1)
	v.SetDefault("leads.rate_limit", 0.0)
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.gemini_model", "gemini-1.5-flash")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.anthropic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.max_tool_rounds", 8)
	v.SetDefault("llm.system_prompt_path", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout_secs", 120)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "sirrus-leads")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes: serve, leads,
// chat, mcp. Missing LLM API keys are not reported here; they surface as a
// ConfigError when the model is first used.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Leads.BaseURL == "" {
		errs = append(errs, "leads.base_url is required")
	}
	if c.Leads.TimeoutSecs <= 0 {
		errs = append(errs, "leads.timeout_secs must be > 0")
	}
	if c.Leads.MaxAttempts < 1 || c.Leads.MaxAttempts > 5 {
		errs = append(errs, "leads.max_attempts must be between 1 and 5")
	}

	switch mode {
	case "leads", "mcp":
	case "chat":
		errs = append(errs, c.validateLLM()...)
	case "serve":
		errs = append(errs, c.validateLLM()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RequestTimeoutSecs <= 0 {
			errs = append(errs, "server.request_timeout_secs must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateLLM() []string {
	var errs []string
	switch c.LLM.Provider {
	case ProviderGemini, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Sprintf("llm.provider must be %q or %q", ProviderGemini, ProviderAnthropic))
	}
	if c.LLM.MaxToolRounds < 1 {
		errs = append(errs, "llm.max_tool_rounds must be >= 1")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "llm.max_tokens must be >= 1")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

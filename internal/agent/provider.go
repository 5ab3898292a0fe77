package agent

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/config"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/anthropic"
)

// Factory builds a Runner from LLM settings.
type Factory func(cfg config.LLMConfig) (Runner, error)

// Provider holds the process-wide Runner. It is built on first use and then
// reused; concurrent first calls build it once.
type Provider struct {
	cfg     config.LLMConfig
	factory Factory

	once   sync.Once
	runner Runner
	err    error
}

// NewProvider creates a Provider for cfg. A nil factory selects the runner
// by cfg.Provider.
func NewProvider(cfg config.LLMConfig, factory Factory) *Provider {
	if factory == nil {
		factory = NewRunner
	}
	return &Provider{cfg: cfg, factory: factory}
}

// Runner returns the shared Runner, building it on the first call. A
// *ConfigError means the provider cannot be used with the current settings.
func (p *Provider) Runner() (Runner, error) {
	p.once.Do(func() {
		p.runner, p.err = p.factory(p.cfg)
		if p.err != nil {
			zap.L().Warn("agent: llm unavailable", zap.String("provider", p.cfg.Provider), zap.Error(p.err))
			return
		}
		zap.L().Info("agent: llm ready", zap.String("provider", p.cfg.Provider), zap.String("model", p.runner.Model()))
	})
	return p.runner, p.err
}

// NewRunner builds the Runner selected by cfg.Provider.
func NewRunner(cfg config.LLMConfig) (Runner, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, &ConfigError{Key: "llm.anthropic_api_key", Reason: "not set"}
		}
		client := anthropic.NewClient(cfg.AnthropicAPIKey)
		return NewAnthropicRunner(client, cfg.AnthropicModel, cfg.MaxTokens, cfg.MaxToolRounds), nil

	case config.ProviderGemini, "":
		if cfg.GeminiAPIKey == "" {
			return nil, &ConfigError{Key: "llm.gemini_api_key", Reason: "not set"}
		}
		llm, err := googleai.New(context.Background(),
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.GeminiModel),
		)
		if err != nil {
			return nil, eris.Wrap(err, "agent: create gemini client")
		}
		return NewLangChainRunner(llm, cfg.GeminiModel, cfg.MaxTokens, cfg.MaxToolRounds), nil

	default:
		return nil, &ConfigError{Key: "llm.provider", Reason: "unsupported provider " + cfg.Provider}
	}
}

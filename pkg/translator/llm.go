package translator

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 500
)

// LLMClient is the completion provider seam: one system instruction and one
// user message in, raw text out.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// LLMConfig describes how to reach the completion provider.
type LLMConfig struct {
	Provider    Provider
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int64
}

// LLMConfigFromEnv reads LLM_PROVIDER, LLM_API_KEY, LLM_MODEL and BASE_URL.
func LLMConfigFromEnv() (*LLMConfig, error) {
	cfg := &LLMConfig{
		Provider: Provider(strings.ToLower(os.Getenv("LLM_PROVIDER"))),
		APIKey:   os.Getenv("LLM_API_KEY"),
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("BASE_URL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *LLMConfig) Validate() error {
	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	if cfg.Provider != ProviderAnthropic && cfg.Provider != ProviderGemini {
		return fmt.Errorf("LLM_PROVIDER must be 'anthropic' or 'gemini', got: %s", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if cfg.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return nil
}

// NewLLMClient builds the client for the configured provider.
func NewLLMClient(ctx context.Context, cfg *LLMConfig) (LLMClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiLLMClient(ctx, cfg)
	default:
		return NewAnthropicLLMClient(cfg), nil
	}
}

// Package translator turns a natural-language analytics question into a SQL
// statement by asking a completion provider. The output is not validated.
package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/malbeclabs/videolake/pkg/errs"
)

type Config struct {
	Logger *slog.Logger
	LLM    LLMClient
	// SystemPrompt defaults to the embedded prompt.
	SystemPrompt string
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.LLM == nil {
		return errors.New("llm client is required")
	}
	if cfg.SystemPrompt == "" {
		prompt, err := LoadSystemPrompt()
		if err != nil {
			return err
		}
		cfg.SystemPrompt = prompt
	}
	return nil
}

type Translator struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Translator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate translator config: %w", err)
	}
	return &Translator{log: cfg.Logger, cfg: cfg}, nil
}

// Translate returns the SQL produced for question with any code fence
// removed. Provider failures and empty completions are errs.KindTranslation.
func (t *Translator) Translate(ctx context.Context, question string) (string, error) {
	start := time.Now()

	resp, err := t.cfg.LLM.Complete(ctx, t.cfg.SystemPrompt, question)
	if err != nil {
		t.log.Error("translator: completion failed", "duration", time.Since(start), "error", err)
		return "", errs.Translation(err)
	}

	sql := StripCodeFence(resp)
	if sql == "" {
		return "", errs.Translation(errors.New("empty completion"))
	}

	t.log.Debug("translator: completion received", "duration", time.Since(start), "response_len", len(resp))
	return sql, nil
}

// SystemPrompt returns the instruction sent with every question.
func (t *Translator) SystemPrompt() string {
	return t.cfg.SystemPrompt
}

// Package analytics answers one question end to end: translate it to SQL,
// run the SQL, and format the scalar result.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/malbeclabs/videolake/pkg/errs"
	"github.com/malbeclabs/videolake/pkg/querier"
)

type Translator interface {
	Translate(ctx context.Context, question string) (string, error)
}

type Executor interface {
	Execute(ctx context.Context, sql string) (any, error)
}

type Config struct {
	Logger     *slog.Logger
	Translator Translator
	Executor   Executor
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Translator == nil {
		return errors.New("translator is required")
	}
	if cfg.Executor == nil {
		return errors.New("executor is required")
	}
	return nil
}

// Service holds no per-conversation state; concurrent Handle calls are
// independent.
type Service struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{log: cfg.Logger, cfg: cfg}, nil
}

// Answer is the outcome of a successful Handle call.
type Answer struct {
	SQL   string
	Value any
	Text  string
}

// Handle returns the formatted answer. Errors carry errs.KindTranslation or
// errs.KindExecution.
func (s *Service) Handle(ctx context.Context, question string) (string, error) {
	ans, err := s.Answer(ctx, question)
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}

// Answer is Handle with the intermediate SQL and raw value exposed.
func (s *Service) Answer(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()

	sql, err := s.cfg.Translator.Translate(ctx, question)
	HandleDuration.WithLabelValues("translate").Observe(time.Since(start).Seconds())
	if err != nil {
		QuestionsTotal.WithLabelValues(errs.KindTranslation.String()).Inc()
		return nil, kindOrDefault(err, errs.Translation)
	}
	s.log.Info("analytics: generated sql", "sql", sql)

	execStart := time.Now()
	value, err := s.cfg.Executor.Execute(ctx, sql)
	HandleDuration.WithLabelValues("execute").Observe(time.Since(execStart).Seconds())
	if err != nil {
		QuestionsTotal.WithLabelValues(errs.KindExecution.String()).Inc()
		return nil, kindOrDefault(err, errs.Execution)
	}

	QuestionsTotal.WithLabelValues("success").Inc()
	HandleDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	return &Answer{SQL: sql, Value: value, Text: querier.FormatScalar(value)}, nil
}

// kindOrDefault keeps an existing kind and otherwise applies wrap.
func kindOrDefault(err error, wrap func(error) error) error {
	if errs.KindOf(err) != 0 {
		return err
	}
	return wrap(err)
}

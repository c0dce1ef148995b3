// Package querier runs a generated SQL statement and reduces its result to a
// single scalar. Statements are executed verbatim.
package querier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/malbeclabs/videolake/pkg/errs"
)

type Querier struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Querier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate querier config: %w", err)
	}
	return &Querier{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Execute runs sql on one pooled connection and returns the first column of
// the first row. A statement with no rows or no columns yields int64(0).
// Every failure is returned as an errs.KindExecution error.
func (q *Querier) Execute(ctx context.Context, sql string) (any, error) {
	start := time.Now()

	conn, err := q.cfg.Pool.Acquire(ctx)
	if err != nil {
		return nil, errs.Execution(fmt.Errorf("failed to acquire connection: %w", err))
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, errs.Execution(err)
	}
	defer rows.Close()

	var result any = int64(0)
	if len(rows.FieldDescriptions()) > 0 && rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errs.Execution(fmt.Errorf("failed to read row: %w", err))
		}
		if len(values) > 0 {
			result = values[0]
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Execution(err)
	}

	q.log.Debug("querier: executed", "duration", time.Since(start), "result_type", fmt.Sprintf("%T", result))
	return result, nil
}

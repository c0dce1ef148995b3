package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/malbeclabs/videolake/pkg/logger"
	"github.com/malbeclabs/videolake/pkg/postgres"
	"github.com/spf13/cobra"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	if err := NewRootCmd().Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "videolake-admin",
		Short: "Admin CLI for the video analytics bot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	rootCmd.AddCommand(
		NewLoadCmd().Command(),
		NewAskCmd().Command(),
		NewExecCmd().Command(),
		NewStatsCmd().Command(),
		NewDeleteCmd().Command(),
	)

	return rootCmd
}

// env is what every subcommand needs: a logger, a signal-aware context and an
// open database.
type env struct {
	ctx    context.Context
	log    *slog.Logger
	db     *postgres.DB
	cancel context.CancelFunc
}

func setup(cmd *cobra.Command) (*env, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	log := logger.New(verbose)

	cfg, err := postgres.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	db, err := postgres.Open(ctx, log, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	return &env{ctx: ctx, log: log, db: db, cancel: cancel}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.cancel()
}

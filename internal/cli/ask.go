package cli

import (
	"fmt"
	"strings"

	"github.com/malbeclabs/videolake/pkg/analytics"
	"github.com/malbeclabs/videolake/pkg/querier"
	"github.com/malbeclabs/videolake/pkg/translator"
	"github.com/spf13/cobra"
)

type AskCmd struct{}

func NewAskCmd() *AskCmd {
	return &AskCmd{}
}

func (c *AskCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question the way the bot would, without Slack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showSQL, err := cmd.Flags().GetBool("show-sql")
			if err != nil {
				return fmt.Errorf("failed to get show-sql flag: %w", err)
			}

			llmCfg, err := translator.LLMConfigFromEnv()
			if err != nil {
				return err
			}

			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			llm, err := translator.NewLLMClient(e.ctx, llmCfg)
			if err != nil {
				return err
			}
			tr, err := translator.New(translator.Config{Logger: e.log, LLM: llm})
			if err != nil {
				return err
			}
			q, err := querier.New(querier.Config{Logger: e.log, Pool: e.db.Pool()})
			if err != nil {
				return err
			}
			svc, err := analytics.New(analytics.Config{Logger: e.log, Translator: tr, Executor: q})
			if err != nil {
				return err
			}

			answer, err := svc.Answer(e.ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if showSQL {
				fmt.Fprintln(cmd.OutOrStdout(), answer.SQL)
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
			return nil
		},
	}

	cmd.Flags().Bool("show-sql", false, "Print the generated SQL before the answer")

	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/malbeclabs/videolake/pkg/querier"
	"github.com/spf13/cobra"
)

type ExecCmd struct{}

func NewExecCmd() *ExecCmd {
	return &ExecCmd{}
}

func (c *ExecCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a statement and print the first column of the first row",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			q, err := querier.New(querier.Config{Logger: e.log, Pool: e.db.Pool()})
			if err != nil {
				return err
			}
			v, err := q.Execute(e.ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), querier.FormatScalar(v))
			return nil
		},
	}
}

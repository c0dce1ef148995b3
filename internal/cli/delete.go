package cli

import (
	"fmt"

	"github.com/malbeclabs/videolake/pkg/videos"
	"github.com/spf13/cobra"
)

type DeleteCmd struct{}

func NewDeleteCmd() *DeleteCmd {
	return &DeleteCmd{}
}

func (c *DeleteCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <video-id>",
		Short: "Delete a video and its snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			deleted, err := videos.NewStore(e.log, e.db.Pool()).DeleteVideo(e.ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("video %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted video %s\n", args[0])
			return nil
		},
	}
}

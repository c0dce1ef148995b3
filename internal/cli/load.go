package cli

import (
	"fmt"

	"github.com/malbeclabs/videolake/pkg/ingest"
	"github.com/malbeclabs/videolake/pkg/videos"
	"github.com/spf13/cobra"
)

type LoadCmd struct {
	policy ingest.TimestampPolicy
}

func NewLoadCmd() *LoadCmd {
	return &LoadCmd{policy: ingest.PolicyNow}
}

func (c *LoadCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Create the schema and load a videos JSON export into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			progressEvery, err := cmd.Flags().GetInt("progress-every")
			if err != nil {
				return fmt.Errorf("failed to get progress-every flag: %w", err)
			}

			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			loader, err := ingest.NewLoader(ingest.Config{
				Logger:        e.log,
				Store:         videos.NewStore(e.log, e.db.Pool()),
				Schema:        e.db,
				Policy:        c.policy,
				ProgressEvery: progressEvery,
			})
			if err != nil {
				return err
			}

			summary, err := loader.Load(e.ctx, file)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", file, err)
			}
			if summary.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "database already has %d videos, nothing loaded\n", summary.ExistingVideos)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "videos: %d inserted, %d duplicate; snapshots: %d inserted, %d duplicate; %d failed records, %d defaulted timestamps\n",
				summary.VideosInserted, summary.VideosDuplicate,
				summary.SnapshotsInserted, summary.SnapshotsDuplicate,
				summary.FailedRecords, summary.DefaultedTimestamps)
			return nil
		},
	}

	cmd.Flags().String("file", "videos.json", "Path to the JSON export")
	cmd.Flags().Int("progress-every", 100, "Log progress every N videos")
	cmd.Flags().Var(&c.policy, "bad-timestamp", "What to do with an unparseable timestamp: now, null or skip")

	return cmd
}

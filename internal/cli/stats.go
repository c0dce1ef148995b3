package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/malbeclabs/videolake/pkg/videos"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type StatsCmd struct{}

func NewStatsCmd() *StatsCmd {
	return &StatsCmd{}
}

func (c *StatsCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and time ranges of the loaded data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.db.EnsureSchema(e.ctx); err != nil {
				return err
			}
			stats, err := videos.NewStore(e.log, e.db.Pool()).Stats(e.ctx)
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func renderStats(w io.Writer, stats videos.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"videos", strconv.FormatInt(stats.Videos, 10)})
	table.Append([]string{"snapshots", strconv.FormatInt(stats.Snapshots, 10)})
	table.Append([]string{"creators", strconv.FormatInt(stats.Creators, 10)})
	table.Append([]string{"first video created", formatTime(stats.FirstVideoCreated)})
	table.Append([]string{"last video created", formatTime(stats.LastVideoCreated)})
	table.Append([]string{"first snapshot", formatTime(stats.FirstSnapshotAt)})
	table.Append([]string{"last snapshot", formatTime(stats.LastSnapshotAt)})
	table.Render()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateTime)
}

package ingest

import "log/slog"

// Summary reports what a Load call did. Inserted counts rows actually
// written; Duplicates counts rows ignored because the id already existed.
type Summary struct {
	Skipped        bool
	ExistingVideos int64

	VideosSeen         int
	VideosInserted     int
	VideosDuplicate    int
	SnapshotsSeen      int
	SnapshotsInserted  int
	SnapshotsDuplicate int

	FailedRecords       int
	DefaultedTimestamps int
}

func (s Summary) LogValue() slog.Value {
	if s.Skipped {
		return slog.GroupValue(
			slog.Bool("skipped", true),
			slog.Int64("existing_videos", s.ExistingVideos),
		)
	}
	return slog.GroupValue(
		slog.Int("videos_seen", s.VideosSeen),
		slog.Int("videos_inserted", s.VideosInserted),
		slog.Int("videos_duplicate", s.VideosDuplicate),
		slog.Int("snapshots_seen", s.SnapshotsSeen),
		slog.Int("snapshots_inserted", s.SnapshotsInserted),
		slog.Int("snapshots_duplicate", s.SnapshotsDuplicate),
		slog.Int("failed_records", s.FailedRecords),
		slog.Int("defaulted_timestamps", s.DefaultedTimestamps),
	)
}

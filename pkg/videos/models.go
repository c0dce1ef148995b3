// Package videos is the repository for the videos and video_snapshots tables.
package videos

import "time"

// Video is one row of the videos table. Nil timestamps are stored as NULL.
type Video struct {
	ID             string
	CreatorID      string
	VideoCreatedAt *time.Time
	ViewsCount     int64
	LikesCount     int64
	CommentsCount  int64
	ReportsCount   int64
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
}

// Snapshot is one row of the video_snapshots table: absolute counters at a
// point in time plus the change since the previous snapshot.
type Snapshot struct {
	ID                 string
	VideoID            string
	ViewsCount         int64
	LikesCount         int64
	CommentsCount      int64
	ReportsCount       int64
	DeltaViewsCount    int64
	DeltaLikesCount    int64
	DeltaCommentsCount int64
	DeltaReportsCount  int64
	CreatedAt          *time.Time
	UpdatedAt          *time.Time
}

type Stats struct {
	Videos            int64
	Snapshots         int64
	Creators          int64
	FirstSnapshotAt   *time.Time
	LastSnapshotAt    *time.Time
	FirstVideoCreated *time.Time
	LastVideoCreated  *time.Time
}

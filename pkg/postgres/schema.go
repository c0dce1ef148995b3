package postgres

import (
	"context"
	"fmt"
)

const (
	VideosTable    = "videos"
	SnapshotsTable = "video_snapshots"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id VARCHAR(255) PRIMARY KEY,
		creator_id VARCHAR(255),
		video_created_at TIMESTAMP,
		views_count INTEGER,
		likes_count INTEGER,
		comments_count INTEGER,
		reports_count INTEGER,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS video_snapshots (
		id VARCHAR(255) PRIMARY KEY,
		video_id VARCHAR(255) REFERENCES videos(id) ON DELETE CASCADE,
		views_count INTEGER,
		likes_count INTEGER,
		comments_count INTEGER,
		reports_count INTEGER,
		delta_views_count INTEGER,
		delta_likes_count INTEGER,
		delta_comments_count INTEGER,
		delta_reports_count INTEGER,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_video_snapshots_video_id ON video_snapshots (video_id)`,
	`CREATE INDEX IF NOT EXISTS idx_video_snapshots_created_at ON video_snapshots (created_at)`,
}

// EnsureSchema creates both tables and their indexes if they do not exist.
// It is safe to call on every start.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	db.log.Debug("postgres: schema ensured", "statements", len(schemaStatements))
	return nil
}

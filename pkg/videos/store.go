package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertVideoSQL = `
	INSERT INTO videos
		(id, creator_id, video_created_at, views_count, likes_count,
		 comments_count, reports_count, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING`

const insertSnapshotSQL = `
	INSERT INTO video_snapshots
		(id, video_id, views_count, likes_count, comments_count, reports_count,
		 delta_views_count, delta_likes_count, delta_comments_count,
		 delta_reports_count, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING`

// Store writes and inspects the dataset. Inserts are first-write-wins: a row
// whose id already exists is left untouched.
type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log, pool: pool}
}

func (s *Store) CountVideos(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return n, nil
}

// InsertVideo reports whether a new row was written.
func (s *Store) InsertVideo(ctx context.Context, v Video) (bool, error) {
	tag, err := s.pool.Exec(ctx, insertVideoSQL,
		v.ID, nullString(v.CreatorID), v.VideoCreatedAt,
		v.ViewsCount, v.LikesCount, v.CommentsCount, v.ReportsCount,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert video: %w", describe(err))
	}
	return tag.RowsAffected() == 1, nil
}

// InsertSnapshot reports whether a new row was written.
func (s *Store) InsertSnapshot(ctx context.Context, sn Snapshot) (bool, error) {
	tag, err := s.pool.Exec(ctx, insertSnapshotSQL,
		sn.ID, sn.VideoID,
		sn.ViewsCount, sn.LikesCount, sn.CommentsCount, sn.ReportsCount,
		sn.DeltaViewsCount, sn.DeltaLikesCount, sn.DeltaCommentsCount, sn.DeltaReportsCount,
		sn.CreatedAt, sn.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", describe(err))
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteVideo removes a video and, through the cascade, its snapshots.
func (s *Store) DeleteVideo(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete video %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (*Video, error) {
	var v Video
	var creator *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, creator_id, video_created_at,
		       COALESCE(views_count, 0), COALESCE(likes_count, 0),
		       COALESCE(comments_count, 0), COALESCE(reports_count, 0),
		       created_at, updated_at
		FROM videos WHERE id = $1`, id,
	).Scan(&v.ID, &creator, &v.VideoCreatedAt,
		&v.ViewsCount, &v.LikesCount, &v.CommentsCount, &v.ReportsCount,
		&v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", id, err)
	}
	if creator != nil {
		v.CreatorID = *creator
	}
	return &v, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM videos),
			(SELECT COUNT(*) FROM video_snapshots),
			(SELECT COUNT(DISTINCT creator_id) FROM videos),
			(SELECT MIN(created_at) FROM video_snapshots),
			(SELECT MAX(created_at) FROM video_snapshots),
			(SELECT MIN(video_created_at) FROM videos),
			(SELECT MAX(video_created_at) FROM videos)`,
	).Scan(&st.Videos, &st.Snapshots, &st.Creators,
		&st.FirstSnapshotAt, &st.LastSnapshotAt,
		&st.FirstVideoCreated, &st.LastVideoCreated)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to collect stats: %w", err)
	}
	return st, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// describe appends the violated constraint name to server-side errors.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return fmt.Errorf("%w (constraint %s)", err, pgErr.ConstraintName)
	}
	return err
}

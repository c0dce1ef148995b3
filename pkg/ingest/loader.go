// Package ingest loads a JSON export of videos and their snapshots into
// PostgreSQL. Loading is idempotent: a non-empty videos table short-circuits
// the whole run and individual rows are inserted first-write-wins.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/malbeclabs/videolake/pkg/errs"
	"github.com/malbeclabs/videolake/pkg/timeutil"
	"github.com/malbeclabs/videolake/pkg/videos"
	"github.com/tidwall/gjson"
)

const defaultProgressEvery = 100

var (
	videoTimestamps    = []string{"video_created_at", "created_at", "updated_at"}
	snapshotTimestamps = []string{"created_at", "updated_at"}
)

type Store interface {
	CountVideos(ctx context.Context) (int64, error)
	InsertVideo(ctx context.Context, v videos.Video) (bool, error)
	InsertSnapshot(ctx context.Context, s videos.Snapshot) (bool, error)
}

type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

type Config struct {
	Logger        *slog.Logger
	Store         Store
	Schema        SchemaEnsurer
	Clock         clockwork.Clock
	Policy        TimestampPolicy
	ProgressEvery int
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Schema == nil {
		return errors.New("schema is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyNow
	}
	if _, err := ParseTimestampPolicy(string(cfg.Policy)); err != nil {
		return err
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = defaultProgressEvery
	}
	return nil
}

type Loader struct {
	log        *slog.Logger
	cfg        Config
	normalizer *timeutil.Normalizer
}

func NewLoader(cfg Config) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loader{
		log:        cfg.Logger,
		cfg:        cfg,
		normalizer: timeutil.NewNormalizer(cfg.Clock),
	}, nil
}

// Load ensures the schema and, if the videos table is empty, loads the export
// at path. Only an unreadable or malformed file (or a database failure outside
// a single record) is returned as an error; bad records are logged and
// counted in the summary.
func (l *Loader) Load(ctx context.Context, path string) (Summary, error) {
	start := l.cfg.Clock.Now()
	var summary Summary

	if err := l.cfg.Schema.EnsureSchema(ctx); err != nil {
		return summary, err
	}

	existing, err := l.cfg.Store.CountVideos(ctx)
	if err != nil {
		return summary, err
	}
	if existing > 0 {
		summary.Skipped = true
		summary.ExistingVideos = existing
		l.log.Info("ingest: videos table already populated, skipping load", "existing_videos", existing)
		return summary, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return summary, fmt.Errorf("failed to parse %s: invalid JSON", path)
	}

	list := gjson.GetBytes(data, "videos")
	if !list.IsArray() || len(list.Array()) == 0 {
		l.log.Warn("ingest: no videos found in export", "path", path)
		return summary, nil
	}
	records := list.Array()
	l.log.Info("ingest: found video entries", "count", len(records), "path", path)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := l.loadVideo(ctx, rec, &summary); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			summary.FailedRecords++
			var e *errs.Error
			id := ""
			if errors.As(err, &e) {
				id = e.ID
			}
			l.log.Error("ingest: failed to load video", "index", i, "id", id, "error", err)
		}

		if processed := i + 1; processed%l.cfg.ProgressEvery == 0 {
			l.log.Info("ingest: progress", "processed", processed, "total", len(records),
				"videos_inserted", summary.VideosInserted, "snapshots_inserted", summary.SnapshotsInserted)
		}
	}

	LoadDuration.Observe(l.cfg.Clock.Since(start).Seconds())
	l.log.Info("ingest: load complete", "summary", summary, "duration", l.cfg.Clock.Since(start).Round(time.Millisecond))
	return summary, nil
}

// loadVideo inserts one video followed by its snapshots in order. A failing
// snapshot abandons the rest of that video's snapshots.
func (l *Loader) loadVideo(ctx context.Context, rec gjson.Result, summary *Summary) error {
	summary.VideosSeen++

	id, err := recordID(rec)
	if err != nil {
		RowsTotal.WithLabelValues("videos", "failed").Inc()
		return errs.IngestRecord("", err)
	}

	v, err := l.parseVideo(id, rec, summary)
	if err != nil {
		RowsTotal.WithLabelValues("videos", "failed").Inc()
		return errs.IngestRecord(id, err)
	}

	inserted, err := l.cfg.Store.InsertVideo(ctx, v)
	if err != nil {
		RowsTotal.WithLabelValues("videos", "failed").Inc()
		return errs.IngestRecord(id, err)
	}
	if inserted {
		summary.VideosInserted++
		RowsTotal.WithLabelValues("videos", "inserted").Inc()
	} else {
		summary.VideosDuplicate++
		RowsTotal.WithLabelValues("videos", "duplicate").Inc()
		l.log.Debug("ingest: duplicate video ignored", "id", id)
	}

	snapshots := rec.Get("snapshots")
	if !snapshots.IsArray() {
		return nil
	}
	for _, snRec := range snapshots.Array() {
		summary.SnapshotsSeen++
		if err := l.loadSnapshot(ctx, id, snRec, summary); err != nil {
			RowsTotal.WithLabelValues("video_snapshots", "failed").Inc()
			return errs.IngestRecord(id, err)
		}
	}
	return nil
}

func (l *Loader) loadSnapshot(ctx context.Context, videoID string, rec gjson.Result, summary *Summary) error {
	snID, err := recordID(rec)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	sn, err := l.parseSnapshot(snID, videoID, rec, summary)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", snID, err)
	}

	inserted, err := l.cfg.Store.InsertSnapshot(ctx, sn)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", snID, err)
	}
	if inserted {
		summary.SnapshotsInserted++
		RowsTotal.WithLabelValues("video_snapshots", "inserted").Inc()
	} else {
		summary.SnapshotsDuplicate++
		RowsTotal.WithLabelValues("video_snapshots", "duplicate").Inc()
	}
	return nil
}

func (l *Loader) parseVideo(id string, rec gjson.Result, summary *Summary) (videos.Video, error) {
	counts, err := counters(rec, videoCounters)
	if err != nil {
		return videos.Video{}, err
	}
	ts, err := l.timestamps(rec, id, videoTimestamps, summary)
	if err != nil {
		return videos.Video{}, err
	}
	return videos.Video{
		ID:             id,
		CreatorID:      rec.Get("creator_id").String(),
		VideoCreatedAt: ts[0],
		ViewsCount:     counts[0],
		LikesCount:     counts[1],
		CommentsCount:  counts[2],
		ReportsCount:   counts[3],
		CreatedAt:      ts[1],
		UpdatedAt:      ts[2],
	}, nil
}

func (l *Loader) parseSnapshot(id, parentID string, rec gjson.Result, summary *Summary) (videos.Snapshot, error) {
	counts, err := counters(rec, snapshotCounters)
	if err != nil {
		return videos.Snapshot{}, err
	}
	ts, err := l.timestamps(rec, id, snapshotTimestamps, summary)
	if err != nil {
		return videos.Snapshot{}, err
	}
	videoID, ok, err := idValue(rec.Get("video_id"))
	if err != nil {
		return videos.Snapshot{}, fmt.Errorf("video_id: %w", err)
	}
	if !ok {
		videoID = parentID
	}
	return videos.Snapshot{
		ID:                 id,
		VideoID:            videoID,
		ViewsCount:         counts[0],
		LikesCount:         counts[1],
		CommentsCount:      counts[2],
		ReportsCount:       counts[3],
		DeltaViewsCount:    counts[4],
		DeltaLikesCount:    counts[5],
		DeltaCommentsCount: counts[6],
		DeltaReportsCount:  counts[7],
		CreatedAt:          ts[0],
		UpdatedAt:          ts[1],
	}, nil
}

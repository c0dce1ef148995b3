package ingest_test

import (
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/malbeclabs/videolake/pkg/ingest"
	postgrestesting "github.com/malbeclabs/videolake/pkg/postgres/testing"
	"github.com/malbeclabs/videolake/pkg/videos"
	"github.com/stretchr/testify/require"
)

func TestVideolake_Ingest_Loader_Postgres(t *testing.T) {
	t.Parallel()

	db := postgrestesting.NewDefaultDB(t)
	store := videos.NewStore(slog.Default(), db.Pool())

	loader, err := ingest.NewLoader(ingest.Config{
		Logger:        slog.Default(),
		Store:         store,
		Schema:        db,
		Clock:         clockwork.NewFakeClockAt(now),
		ProgressEvery: 1,
	})
	require.NoError(t, err)

	path := writeExport(t, `{"videos": [
		{"id": "v1", "creator_id": "c1", "video_created_at": "2025-11-26T11:30:00Z", "views_count": 10,
		 "snapshots": [
			{"id": "s1", "views_count": 4, "delta_views_count": 4, "created_at": "2025-11-27T10:00:00Z"},
			{"id": "s2", "video_id": "ghost", "views_count": 9},
			{"id": "s3", "views_count": 10}
		 ]},
		{"id": "v2", "creator_id": "c1", "views_count": 3000000000},
		{"id": "v3", "creator_id": "c2", "snapshots": [{"id": "s4", "delta_views_count": 7}]},
		{"id": "v1", "creator_id": "dup", "views_count": 999}
	]}`)

	summary, err := loader.Load(t.Context(), path)
	require.NoError(t, err)
	require.False(t, summary.Skipped)
	require.Equal(t, 4, summary.VideosSeen)
	require.Equal(t, 2, summary.VideosInserted)
	require.Equal(t, 1, summary.VideosDuplicate)
	require.Equal(t, 2, summary.SnapshotsInserted)
	// v1 (snapshot fk violation) and v2 (integer overflow).
	require.Equal(t, 2, summary.FailedRecords)

	v1, err := store.GetVideo(t.Context(), "v1")
	require.NoError(t, err)
	require.Equal(t, "c1", v1.CreatorID)
	require.Equal(t, int64(10), v1.ViewsCount)

	v2, err := store.GetVideo(t.Context(), "v2")
	require.NoError(t, err)
	require.Nil(t, v2)

	st, err := store.Stats(t.Context())
	require.NoError(t, err)
	require.Equal(t, int64(2), st.Videos)
	require.Equal(t, int64(2), st.Snapshots)

	// A second run against the populated table is a no-op.
	again, err := loader.Load(t.Context(), path)
	require.NoError(t, err)
	require.True(t, again.Skipped)
	require.Equal(t, int64(2), again.ExistingVideos)
}

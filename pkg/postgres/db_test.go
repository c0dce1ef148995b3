package postgres_test

import (
	"testing"

	"github.com/malbeclabs/videolake/pkg/postgres"
	postgrestesting "github.com/malbeclabs/videolake/pkg/postgres/testing"
	"github.com/stretchr/testify/require"
)

func TestVideolake_Postgres_EnsureSchema(t *testing.T) {
	t.Parallel()

	db := postgrestesting.NewDefaultDB(t)
	ctx := t.Context()

	// Applying the schema a second time is a no-op.
	require.NoError(t, db.EnsureSchema(ctx))

	for _, table := range []string{postgres.VideosTable, postgres.SnapshotsTable} {
		var exists bool
		err := db.Pool().QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table,
		).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, table)
	}

	var indexes int
	err := db.Pool().QueryRow(ctx,
		`SELECT count(*) FROM pg_indexes WHERE tablename = $1 AND indexname LIKE 'idx_%'`, postgres.SnapshotsTable,
	).Scan(&indexes)
	require.NoError(t, err)
	require.Equal(t, 2, indexes)
}

func TestVideolake_Postgres_SnapshotsCascadeOnVideoDelete(t *testing.T) {
	t.Parallel()

	db := postgrestesting.NewDefaultDB(t)
	ctx := t.Context()

	_, err := db.Pool().Exec(ctx, `INSERT INTO videos (id, creator_id) VALUES ('v1', 'c1'), ('v2', 'c1')`)
	require.NoError(t, err)
	_, err = db.Pool().Exec(ctx, `INSERT INTO video_snapshots (id, video_id) VALUES ('s1', 'v1'), ('s2', 'v1'), ('s3', 'v2'), ('s4', 'v2')`)
	require.NoError(t, err)

	_, err = db.Pool().Exec(ctx, `DELETE FROM videos WHERE id = 'v1'`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Pool().QueryRow(ctx, `SELECT count(*) FROM video_snapshots WHERE video_id = 'v1'`).Scan(&n))
	require.Zero(t, n)

	rows, err := db.Pool().Query(ctx, `SELECT id FROM video_snapshots ORDER BY id`)
	require.NoError(t, err)
	var remaining []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		remaining = append(remaining, id)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"s3", "s4"}, remaining)
}

func TestVideolake_Postgres_SnapshotRequiresExistingVideo(t *testing.T) {
	t.Parallel()

	db := postgrestesting.NewDefaultDB(t)

	_, err := db.Pool().Exec(t.Context(), `INSERT INTO video_snapshots (id, video_id) VALUES ('s1', 'missing')`)
	require.Error(t, err)
}

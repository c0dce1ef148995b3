package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestVideolake_Fixtures_RenderVideos(t *testing.T) {
	t.Parallel()

	body, err := RenderVideos(Export{
		Videos:    3,
		Snapshots: 2,
		Creators:  2,
		Start:     time.Date(2025, 11, 27, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, gjson.Valid(body))

	videos := gjson.Get(body, "videos").Array()
	require.Len(t, videos, 3)
	require.Equal(t, "video-2", videos[1].Get("id").String())
	require.Equal(t, "creator-0", videos[1].Get("creator_id").String())
	require.Equal(t, int64(60), videos[2].Get("views_count").Int())

	snaps := videos[2].Get("snapshots").Array()
	require.Len(t, snaps, 2)
	require.Equal(t, "video-3-snap-2", snaps[1].Get("id").String())
	require.Equal(t, int64(30), snaps[1].Get("delta_views_count").Int())
	require.Equal(t, "2025-11-27T02:00:00.000000Z", snaps[1].Get("created_at").String())
}

func TestVideolake_Fixtures_RenderVideos_Empty(t *testing.T) {
	t.Parallel()

	body, err := RenderVideos(Export{})
	require.NoError(t, err)
	require.True(t, gjson.Valid(body))
	require.Empty(t, gjson.Get(body, "videos").Array())
}

func TestVideolake_Fixtures_WriteVideos(t *testing.T) {
	t.Parallel()

	path, err := WriteVideos(t.TempDir(), Export{Videos: 1, Snapshots: 1})
	require.NoError(t, err)
	require.FileExists(t, path)
}

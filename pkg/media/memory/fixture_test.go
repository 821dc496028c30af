package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/media/memory"
)

const fixtureYAML = `
cores:
  - id: local
    name: Local Files
    search: true
    user:
      display_name: Ada
      region: GB
    devices:
      - name: Laptop
        active: true
    library:
      albums:
        - name: Abbey Road
          published: "1969-09-26"
          artists: [The Beatles]
          genres: [Rock]
          tracks:
            - name: Come Together
              number: 1
              duration: 4m19s
              artists: [The Beatles]
            - name: Something
              number: 2
              duration: 3m2s
      tracks:
        - name: Yesterday
          duration: 2m5s
      playlists:
        - name: Favourites
          tracks: [Something, Yesterday]
    pins:
      artists:
        - name: The Beatles
  - id: spotify
    library:
      artists:
        - name: Queen
`

func TestParseFixture(t *testing.T) {
	cores, err := memory.ParseFixture([]byte(fixtureYAML), "inline.yaml")
	require.NoError(t, err)
	require.Len(t, cores, 2)

	local := cores[0]
	assert.Equal(t, media.CoreID("local"), local.ID())
	assert.Equal(t, "Local Files", local.DisplayName())
	assert.NotNil(t, local.Search())
	assert.NotNil(t, local.User())
	assert.NotNil(t, local.Pins())
	assert.Nil(t, local.Discoverables())
	assert.Nil(t, local.RecentlyPlayed())
	require.Len(t, local.Devices(), 1)
	assert.True(t, local.Devices()[0].IsActive())

	ctx := context.Background()
	lib := local.Library()
	assert.Equal(t, 1, lib.Albums().Count())
	assert.Equal(t, 1, lib.Artists().Count())
	assert.Equal(t, 3, lib.Tracks().Count())
	assert.Equal(t, 1, lib.Playlists().Count())

	albums, err := lib.Albums().Items(ctx, 1, 0)
	require.NoError(t, err)
	album := albums[0].(media.Album)
	assert.Equal(t, 1969, album.DatePublished().Year())
	assert.Equal(t, 2, album.Tracks().Count())

	albumTracks, err := album.Tracks().Items(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Minute+19*time.Second, albumTracks[0].Duration())
	assert.Equal(t, "Abbey Road", albumTracks[0].Album().Name())

	spotify := cores[1]
	assert.Equal(t, "spotify", spotify.DisplayName())
	assert.Nil(t, spotify.Search())
	assert.Nil(t, spotify.User())
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		is   error
	}{
		{"missing id", "cores:\n  - name: x\n", errors.ErrInvalidInput},
		{"duplicate id", "cores:\n  - id: a\n  - id: a\n", errors.ErrAlreadyExists},
		{"bad duration", "cores:\n  - id: a\n    library:\n      tracks:\n        - name: t\n          duration: soon\n", errors.ErrInvalidInput},
		{"unknown playlist track", "cores:\n  - id: a\n    library:\n      playlists:\n        - name: p\n          tracks: [ghost]\n", errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := memory.ParseFixture([]byte(tt.yaml), "bad.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := memory.ParseFixture([]byte("cores: [\n"), "broken.yaml")
	require.Error(t, err)
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	cores, err := memory.LoadFixture(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, cores, 2)
}

package merge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/media/memory"
	"github.com/agentstation/strix/pkg/merge"
)

func searchCores() (*memory.Core, *memory.Core) {
	local := memory.NewCore("local", "Local files").WithSearch()
	local.LibraryGroup().WithAlbums(
		memory.NewAlbum("local", "Abbey Road"),
		memory.NewAlbum("local", "Abba Gold"),
	)
	spotify := memory.NewCore("spotify", "Spotify").WithSearch()
	spotify.LibraryGroup().WithAlbums(
		memory.NewAlbum("spotify", "Abbey Road"),
		memory.NewAlbum("spotify", "Revolver"),
	)
	return local, spotify
}

func mergedSearch(t *testing.T) *merge.MergedSearch {
	t.Helper()
	local, spotify := searchCores()
	s := must(merge.NewMergedSearch(newConfig(t, "local", "spotify"), local.Search()))
	require.NoError(t, s.AddSource(context.Background(), spotify.Search()))
	return s
}

func TestMergedSearch_AutoComplete(t *testing.T) {
	s := mergedSearch(t)

	got, err := s.AutoComplete(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, []string{"Abbey Road", "Abba Gold"}, got)

	got, err = s.AutoComplete(context.Background(), "zz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMergedSearch_Results(t *testing.T) {
	ctx := context.Background()
	s := mergedSearch(t)

	first, err := s.MergedResults(ctx, "abbey")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, media.KindSearchResults, first.Kind())
	assert.Len(t, first.Sources(), 2)

	albums, err := first.AlbumMap().Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Abbey Road", albums[0].Name())
	assert.Len(t, albums[0].Sources(), 2)

	second, err := s.Results(ctx, "revolver")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.True(t, first.Disposed(), "previous results are released")

	albums, err = second.(*merge.MergedGroup).AlbumMap().Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, media.CoreID("spotify"), albums[0].Sources()[0].Core())
}

func TestMergedSearch_History(t *testing.T) {
	s := mergedSearch(t)

	h := s.MergedHistory()
	require.NotNil(t, h)
	assert.Equal(t, media.KindSearchHistory, h.Kind())
	assert.Len(t, h.Sources(), 2)
	assert.Same(t, h, s.MergedHistory())
}

func TestMergedSearch_SourcesFollowHistory(t *testing.T) {
	ctx := context.Background()
	local, spotify := searchCores()
	s := must(merge.NewMergedSearch(newConfig(t, "local", "spotify"), local.Search()))

	require.Len(t, s.MergedHistory().Sources(), 1)
	require.NoError(t, s.AddSource(ctx, spotify.Search()))
	assert.Len(t, s.MergedHistory().Sources(), 2)

	require.NoError(t, s.RemoveSource(ctx, spotify.Search()))
	assert.Len(t, s.MergedHistory().Sources(), 1)
}

func TestMergedSearch_Dispose(t *testing.T) {
	ctx := context.Background()
	s := mergedSearch(t)
	results, err := s.MergedResults(ctx, "abbey")
	require.NoError(t, err)
	history := s.MergedHistory()

	require.NoError(t, s.Dispose(ctx))
	assert.True(t, results.Disposed())
	assert.True(t, history.Disposed())

	_, err = s.MergedResults(ctx, "abbey")
	assert.True(t, errors.IsDisposed(err))
}

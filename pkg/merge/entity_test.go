package merge_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/logging"
	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/media/memory"
	"github.com/agentstation/strix/pkg/merge"
)

func abbeyRoad(core media.CoreID) *memory.Album {
	tracks := make([]*memory.Track, 17)
	for i := range tracks {
		tracks[i] = memory.NewTrack(core, fmt.Sprintf("Track %02d", i+1)).WithNumber(i + 1)
	}
	return memory.NewAlbum(core, "Abbey Road").WithTracks(tracks...)
}

func TestMergedAlbum_AbbeyRoad(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	local, spotify := abbeyRoad("local"), abbeyRoad("spotify")

	album, err := merge.NewMergedAlbum(cfg, local)
	require.NoError(t, err)
	require.NoError(t, album.AddSource(ctx, spotify))

	tracks, err := album.TrackMap().Page(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, tracks, 17)
	for i, tr := range tracks {
		assert.Len(t, tr.Sources(), 2, "track %d", i+1)
		assert.Equal(t, i+1, tr.TrackNumber())
		assert.Equal(t, media.CoreID("local"), tr.Preferred().Core())
	}
	assert.Equal(t, 34, album.TotalTrackCount())
	assert.Equal(t, 34, album.Tracks().Count())

	// The album of a merged track merges the source albums.
	trackAlbum := tracks[0].MergedAlbum()
	require.NotNil(t, trackAlbum)
	assert.Equal(t, "Abbey Road", trackAlbum.Name())
	assert.Len(t, trackAlbum.Sources(), 2)
	assert.Same(t, trackAlbum, tracks[0].MergedAlbum())
}

func TestMergedAlbum_PreferredSource(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	local := memory.NewAlbum("local", "Let It Be")
	spotify := memory.NewAlbum("spotify", "Let It Be")
	require.NoError(t, spotify.ChangeDescription(ctx, "remote"))
	require.NoError(t, local.ChangeDescription(ctx, "local"))

	album := must(merge.NewMergedAlbum(cfg, local))
	require.NoError(t, album.AddSource(ctx, spotify))

	assert.Equal(t, "local", album.Description())
	assert.Equal(t, merge.CoreID, album.Core())
	assert.Equal(t, media.KindAlbum, album.Kind())
	assert.NotEmpty(t, album.ID())

	var changes []media.Change
	album.OnChanged(func(c media.Change) { changes = append(changes, c) })

	// Preferred source changes are forwarded as raised.
	require.NoError(t, local.Play(ctx))
	require.NotEmpty(t, changes)
	assert.Same(t, local, changes[0].Item)
	assert.Equal(t, media.PropPlaybackState, changes[0].Property)

	// Other sources stay silent.
	changes = nil
	require.NoError(t, spotify.Play(ctx))
	assert.Empty(t, changes)

	// Removing the preferred source promotes the next one.
	require.NoError(t, album.RemoveSource(ctx, local))
	assert.Equal(t, "remote", album.Description())
	require.NoError(t, spotify.Pause(ctx))
	require.NotEmpty(t, changes)
	assert.Same(t, spotify, changes[len(changes)-1].Item)
}

func TestMergedAlbum_ChangeFansOut(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	local := memory.NewAlbum("local", "Help!")
	spotify := memory.NewAlbum("spotify", "Help!")
	album := must(merge.NewMergedAlbum(cfg, local))
	require.NoError(t, album.AddSource(ctx, spotify))

	require.NoError(t, album.ChangeName(ctx, "Help! (Remastered)"))
	assert.Equal(t, "Help! (Remastered)", local.Name())
	assert.Equal(t, "Help! (Remastered)", spotify.Name())
	assert.Equal(t, "Help! (Remastered)", album.Name())

	require.NoError(t, album.Play(ctx))
	assert.Equal(t, media.PlaybackPlaying, local.PlaybackState())
	assert.Equal(t, media.PlaybackNone, spotify.PlaybackState())
}

func TestMergedAlbum_CountChanges(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local")
	local := abbeyRoad("local")
	album := must(merge.NewMergedAlbum(cfg, local))
	_, err := album.TrackMap().Page(ctx, 5, 0)
	require.NoError(t, err)

	var changes []media.Change
	album.OnChanged(func(c media.Change) { changes = append(changes, c) })

	local.Tracks().(*memory.Collection[media.Track]).Append(memory.NewTrack("local", "Her Majesty").WithNumber(18))
	require.Len(t, changes, 2)

	assert.Same(t, album, changes[0].Item)
	assert.Equal(t, media.PropItems, changes[0].Property)
	items, ok := changes[0].Value.(media.ItemsChanged[media.Track])
	require.True(t, ok)
	require.Len(t, items.Added, 1)
	assert.Equal(t, 5, items.Added[0].Index)
	assert.Equal(t, "Her Majesty", items.Added[0].Item.Name())

	assert.Same(t, album, changes[1].Item)
	assert.Equal(t, media.PropTotalTrackCount, changes[1].Property)
	assert.Equal(t, 18, changes[1].Value)
}

func TestMergedAlbum_PlayTrackRoutesToPreferredCore(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	local, spotify := abbeyRoad("local"), abbeyRoad("spotify")
	album := must(merge.NewMergedAlbum(cfg, local))
	require.NoError(t, album.AddSource(ctx, spotify))

	tracks, err := album.TrackMap().Page(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	require.NoError(t, album.PlayTrack(ctx, tracks[0]))
	assert.Equal(t, []string{tracks[0].Sources()[0].ID()}, local.Played())
	assert.Empty(t, spotify.Played())

	// A provider item from the preferred core is accepted as is.
	direct := memory.NewTrack("local", "Something")
	require.NoError(t, album.PlayTrack(ctx, direct))

	// A target without a source from the preferred core is rejected.
	orphan := memory.NewTrack("youtube", "Something")
	err = album.PlayTrack(ctx, orphan)
	assert.True(t, errors.IsValidationError(err))
}

func TestMerged_AddSourceRules(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	local := memory.NewAlbum("local", "Revolver")
	album := must(merge.NewMergedAlbum(cfg, local))

	err := album.AddSource(ctx, memory.NewAlbum("spotify", "Rubber Soul"))
	var mergeErr *errors.MergeError
	require.True(t, errors.As(err, &mergeErr))
	assert.True(t, errors.IsValidationError(err))

	assert.True(t, errors.IsAlreadyExists(album.AddSource(ctx, local)))
	assert.True(t, errors.IsValidationError(album.AddSource(ctx, nil)))

	group := memory.NewGroup("spotify", media.KindAlbumCollection, "Revolver")
	assert.True(t, errors.IsValidationError(album.AddSource(ctx, group)), "an album collection is not an album")

	assert.True(t, errors.IsNotFound(album.RemoveSource(ctx, memory.NewAlbum("spotify", "Revolver"))))
	assert.True(t, errors.IsValidationError(album.RemoveSource(ctx, local)), "the last source cannot be removed")

	_, err = merge.NewMergedAlbum(cfg, group)
	assert.True(t, errors.IsValidationError(err))
	_, err = merge.NewMergedAlbum(nil, local)
	assert.True(t, errors.IsValidationError(err))
}

func TestMerged_DisposeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	local, spotify := abbeyRoad("local"), abbeyRoad("spotify")
	album := must(merge.NewMergedAlbum(cfg, local))
	require.NoError(t, album.AddSource(ctx, spotify))
	_, err := album.TrackMap().Page(ctx, 34, 0)
	require.NoError(t, err)

	var changes int
	album.OnChanged(func(media.Change) { changes++ })

	require.NoError(t, album.Dispose(ctx))
	require.NoError(t, album.Dispose(ctx))
	assert.True(t, album.Disposed())
	assert.Equal(t, 1, local.Disposals())
	assert.Equal(t, 1, spotify.Disposals())

	_, err = album.TrackMap().Page(ctx, 1, 0)
	assert.True(t, errors.IsDisposed(err))
	assert.True(t, errors.IsDisposed(album.AddSource(ctx, memory.NewAlbum("tidal", "Abbey Road"))))

	require.NoError(t, local.Play(ctx))
	assert.Zero(t, changes)
}

func TestMerged_DownloadNotSupported(t *testing.T) {
	cfg := newConfig(t, "local")
	library := memory.NewGroup("local", media.KindLibrary, "Library")

	entities := map[string]interface {
		StartDownloadOperation(context.Context, media.DownloadOperation) error
	}{
		"track":               must(merge.NewMergedTrack(cfg, memory.NewTrack("local", "t"))),
		"album":               must(merge.NewMergedAlbum(cfg, memory.NewAlbum("local", "a"))),
		"album collection":    must(merge.NewMergedAlbumCollection(cfg, memory.NewGroup("local", media.KindAlbumCollection, "ac"))),
		"artist":              must(merge.NewMergedArtist(cfg, memory.NewArtist("local", "ar"))),
		"artist collection":   must(merge.NewMergedArtistCollection(cfg, memory.NewGroup("local", media.KindArtistCollection, "arc"))),
		"playlist":            must(merge.NewMergedPlaylist(cfg, memory.NewPlaylist("local", "p"))),
		"playlist collection": must(merge.NewMergedPlaylistCollection(cfg, memory.NewGroup("local", media.KindPlaylistCollection, "pc"))),
		"group":               must(merge.NewMergedGroup(cfg, library)),
		"image":               must(merge.NewMergedImage(cfg, memory.NewImage("local", "file:///cover.jpg", 600, 600))),
		"url":                 must(merge.NewMergedUrl(cfg, memory.NewUrl("local", "home", "https://example.com", media.UrlTypeWebsite))),
		"genre":               must(merge.NewMergedGenre(cfg, memory.NewGenre("local", "rock"))),
		"user profile":        must(merge.NewMergedUserProfile(cfg, memory.NewUserProfile("local", "me", "me@example.com", "US"))),
		"search":              must(merge.NewMergedSearch(cfg, memory.NewSearch("local", library))),
	}
	for name, e := range entities {
		t.Run(name, func(t *testing.T) {
			for _, op := range []media.DownloadOperation{media.DownloadStart, media.DownloadPause, media.DownloadCancel} {
				err := e.StartDownloadOperation(context.Background(), op)
				assert.True(t, errors.IsNotSupported(err), "%s: %v", op, err)
			}
		})
	}
}

func TestMergedTrack(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	rock := memory.NewGenre("local", "rock")
	local := memory.NewTrack("local", "Come Together").WithNumber(1).WithLyrics("here come old flat top").WithGenres(rock)
	spotify := memory.NewTrack("spotify", "Come Together").WithNumber(1).WithGenres(memory.NewGenre("spotify", "rock"))

	track := must(merge.NewMergedTrack(cfg, local))
	require.NoError(t, track.AddSource(ctx, spotify))

	assert.Equal(t, "here come old flat top", track.Lyrics())
	assert.True(t, errors.IsNotSupported(track.ChangeLyrics(ctx, "shoot me")))
	assert.Nil(t, track.Album(), "no source has an album")

	genres, err := track.GenreMap().Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "rock", genres[0].Name())
	assert.Len(t, genres[0].Sources(), 2)
	assert.Equal(t, 2, track.TotalGenreCount())

	require.NoError(t, track.RemoveSource(ctx, spotify))
	assert.Len(t, track.Sources(), 1)
	assert.Equal(t, 1, track.TotalGenreCount())
}

func TestMergedUserProfile_NeverMerges(t *testing.T) {
	cfg := newConfig(t, "local", "spotify")
	profile := must(merge.NewMergedUserProfile(cfg, memory.NewUserProfile("local", "me", "me@example.com", "US")))

	err := profile.AddSource(context.Background(), memory.NewUserProfile("spotify", "me", "me@example.com", "US"))
	assert.True(t, errors.IsNotSupported(err))
	assert.Len(t, profile.Sources(), 1)
	assert.Equal(t, "me", profile.DisplayName())
	assert.Equal(t, "US", profile.Region())
}

func TestMergedGroup_NestedDispatch(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")

	local := memory.NewGroup("local", media.KindLibrary, "Library")
	local.WithAlbums(
		memory.NewAlbum("local", "Abbey Road"),
		memory.NewGroup("local", media.KindAlbumCollection, "Favourites"),
	)
	local.WithChildren(memory.NewGroup("local", media.KindCollectionGroup, "Jazz"))
	spotify := memory.NewGroup("spotify", media.KindLibrary, "Library")
	spotify.WithAlbums(memory.NewAlbum("spotify", "Abbey Road"))
	spotify.WithChildren(memory.NewGroup("spotify", media.KindCollectionGroup, "Jazz"))

	library := must(merge.NewMergedGroup(cfg, local))
	require.NoError(t, library.AddSource(ctx, spotify))

	albums, err := library.AlbumMap().Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	abbey, ok := albums[0].(*merge.MergedAlbum)
	require.True(t, ok)
	assert.Len(t, abbey.Sources(), 2)
	_, ok = albums[1].(*merge.MergedAlbumCollection)
	assert.True(t, ok)

	children, err := library.ChildMap().Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Jazz", children[0].Name())
	assert.Len(t, children[0].Sources(), 2)

	require.NoError(t, library.PlayAlbum(ctx, abbey))
	assert.Equal(t, []string{abbey.Sources()[0].ID()}, local.Played())

	require.NoError(t, library.PlayChild(ctx, children[0]))
	assert.Len(t, local.Played(), 2)
}

// albumlessGroup hands out a typed nil album collection.
type albumlessGroup struct{ *memory.Group }

func (albumlessGroup) Albums() media.Collection[media.AlbumItem] {
	var c *memory.Collection[media.AlbumItem]
	return c
}

func TestMergedGroup_LogsRejectedNestedCollection(t *testing.T) {
	previous := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(previous) })
	tl := logging.NewTestLogger(t)
	logging.SetDefault(tl.Logger)

	group := albumlessGroup{memory.NewGroup("local", media.KindLibrary, "Library")}
	merged, err := merge.NewMergedGroup(newConfig(t, "local"), group)
	require.NoError(t, err)
	defer merged.Dispose(context.Background())

	failed := tl.Find("Failed to attach nested collection")
	require.Len(t, failed, 1)
	assert.Equal(t, "group albums", failed[0]["collection"])
	assert.Equal(t, "local", failed[0]["core_id"])
	assert.Equal(t, 0, merged.TotalAlbumCount())
}

func TestMergedGroup_FeatureSourcesIgnoreNames(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	local := memory.NewGroup("local", media.KindLibrary, "Library")
	spotify := memory.NewGroup("spotify", media.KindLibrary, "Your Library")

	merged := must(merge.NewMergedGroup(cfg, local))
	defer merged.Dispose(ctx)
	assert.Error(t, merged.AddSource(ctx, spotify), "names differ")
	require.NoError(t, merged.AddFeatureSource(ctx, spotify))
	assert.Len(t, merged.Sources(), 2)

	pins := memory.NewGroup("tidal", media.KindPins, "Library")
	assert.Error(t, merged.AddFeatureSource(ctx, pins), "kinds must still match")
}

func TestMerged_SourcesFollowRanking(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, "local", "spotify")
	spotify := memory.NewAlbum("spotify", "Revolver")
	local := memory.NewAlbum("local", "Revolver")
	require.NoError(t, spotify.ChangeDescription(ctx, "remote"))
	require.NoError(t, local.ChangeDescription(ctx, "local"))

	album := must(merge.NewMergedAlbum(cfg, spotify))
	defer album.Dispose(ctx)
	assert.Equal(t, "remote", album.Description())

	require.NoError(t, album.AddSource(ctx, local))
	assert.Equal(t, []media.CoreID{"local", "spotify"}, album.SourceCores())
	assert.Equal(t, "local", album.Description())

	var changes []media.Change
	album.OnChanged(func(c media.Change) { changes = append(changes, c) })
	require.NoError(t, local.Play(ctx))
	require.NotEmpty(t, changes)
	assert.Same(t, local, changes[0].Item)

	require.NoError(t, album.AddSource(ctx, memory.NewAlbum("tidal", "Revolver")))
	assert.Equal(t, []media.CoreID{"local", "spotify", "tidal"}, album.SourceCores(), "unranked cores go last")
}

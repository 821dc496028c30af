package memory

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/events"
	"github.com/agentstation/strix/pkg/media"
)

// playable carries the state shared by every playable entity.
type playable struct {
	core media.CoreID
	id   string
	kind media.Kind
	self media.Item

	mu          sync.RWMutex
	name        string
	description string
	duration    time.Duration
	state       media.PlaybackState
	lastPlayed  utc.Time
	addedAt     utc.Time
	played      []string

	images *Collection[media.Image]
	urls   *Collection[media.Url]

	changed   events.Feed[media.Change]
	disposals atomic.Int32
}

func (p *playable) init(self media.Item, core media.CoreID, kind media.Kind, name string) {
	p.self = self
	p.core = core
	p.id = uuid.NewString()
	p.kind = kind
	p.name = name
	p.state = media.PlaybackNone
	p.addedAt = utc.Now()
	p.images = NewCollection[media.Image](core)
	p.urls = NewCollection[media.Url](core)
}

func (p *playable) ID() string { return p.id }
func (p *playable) Core() media.CoreID { return p.core }
func (p *playable) Kind() media.Kind { return p.kind }
func (p *playable) AddedAt() utc.Time { return p.addedAt }
func (p *playable) Images() media.Collection[media.Image] { return p.images }
func (p *playable) Urls() media.Collection[media.Url] { return p.urls }

func (p *playable) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

func (p *playable) Description() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.description
}

func (p *playable) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.duration
}

func (p *playable) PlaybackState() media.PlaybackState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *playable) LastPlayed() utc.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPlayed
}

// OnChanged implements media.Observable.
func (p *playable) OnChanged(fn func(media.Change)) events.Subscription {
	return p.changed.Subscribe(fn)
}

// Play starts playback of the entity itself.
func (p *playable) Play(ctx context.Context) error {
	return p.play(ctx, "")
}

// Pause pauses playback.
func (p *playable) Pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.set(media.PropPlaybackState, func() any {
		p.state = media.PlaybackPaused
		return p.state
	})
	return nil
}

// ChangeName renames the entity.
func (p *playable) ChangeName(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.set(media.PropName, func() any {
		p.name = name
		return name
	})
	return nil
}

// ChangeDescription replaces the description.
func (p *playable) ChangeDescription(ctx context.Context, description string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.set(media.PropDescription, func() any {
		p.description = description
		return description
	})
	return nil
}

// ChangeDuration replaces the duration.
func (p *playable) ChangeDuration(ctx context.Context, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.set(media.PropDuration, func() any {
		p.duration = duration
		return duration
	})
	return nil
}

// Dispose records the call. It never fails.
func (p *playable) Dispose(context.Context) error {
	p.disposals.Add(1)
	return nil
}

// Disposals returns how many times Dispose was called.
func (p *playable) Disposals() int {
	return int(p.disposals.Load())
}

// Played returns the ids of the items played through this entity, in call
// order. Playing the entity itself records its own id.
func (p *playable) Played() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.played)
}

// play records target and switches to playing. An empty target plays the
// entity itself.
func (p *playable) play(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if target == "" {
		target = p.id
	}
	p.mu.Lock()
	p.played = append(p.played, target)
	p.lastPlayed = utc.Now()
	p.mu.Unlock()

	p.set(media.PropPlaybackState, func() any {
		p.state = media.PlaybackPlaying
		return p.state
	})
	return nil
}

// playOwned plays target after checking it belongs to the same core.
func (p *playable) playOwned(ctx context.Context, target media.Item) error {
	if target == nil {
		return errors.NewValidationError("target", nil, "is required")
	}
	if target.Core() != p.core {
		return errors.NewValidationError("target", target.ID(), "belongs to core "+target.Core().String())
	}
	return p.play(ctx, target.ID())
}

// set applies mutate under the lock and raises the change after unlock.
func (p *playable) set(prop media.Property, mutate func() any) {
	p.mu.Lock()
	value := mutate()
	p.mu.Unlock()
	p.changed.Emit(media.Change{Item: p.self, Property: prop, Value: value})
}

// Track is an in-memory media.Track.
type Track struct {
	playable

	trackType media.TrackType
	number    int
	disc      int
	language  string
	explicit  bool
	lyrics    string
	album     media.Album

	artists *Collection[media.ArtistItem]
	genres  *Collection[media.Genre]
}

var _ media.Track = (*Track)(nil)

// NewTrack returns a song named name owned by core.
func NewTrack(core media.CoreID, name string) *Track {
	t := &Track{
		trackType: media.TrackTypeSong,
		disc:      1,
		artists:   NewCollection[media.ArtistItem](core),
		genres:    NewCollection[media.Genre](core),
	}
	t.init(t, core, media.KindTrack, name)
	return t
}

func (t *Track) TrackType() media.TrackType { return t.trackType }
func (t *Track) TrackNumber() int { return t.number }
func (t *Track) DiscNumber() int { return t.disc }
func (t *Track) Language() string { return t.language }
func (t *Track) IsExplicit() bool { return t.explicit }
func (t *Track) Artists() media.Collection[media.ArtistItem] { return t.artists }
func (t *Track) Genres() media.Collection[media.Genre] { return t.genres }

func (t *Track) Lyrics() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lyrics
}

// Album implements media.Track.
func (t *Track) Album() media.Album {
	return t.album
}

// WithID replaces the generated id.
func (t *Track) WithID(id string) *Track { t.id = id; return t }

// WithNumber sets the track number.
func (t *Track) WithNumber(n int) *Track { t.number = n; return t }

// WithDisc sets the disc number.
func (t *Track) WithDisc(n int) *Track { t.disc = n; return t }

// WithType sets the track type.
func (t *Track) WithType(tt media.TrackType) *Track { t.trackType = tt; return t }

// WithDuration sets the duration.
func (t *Track) WithDuration(d time.Duration) *Track { t.duration = d; return t }

// WithLyrics sets the lyrics.
func (t *Track) WithLyrics(lyrics string) *Track { t.lyrics = lyrics; return t }

// WithLanguage sets the language and the explicit flag.
func (t *Track) WithLanguage(language string, explicit bool) *Track {
	t.language = language
	t.explicit = explicit
	return t
}

// WithAlbum links the track to album.
func (t *Track) WithAlbum(album *Album) *Track {
	if album != nil {
		t.album = album
	}
	return t
}

// WithArtists appends artists.
func (t *Track) WithArtists(artists ...media.ArtistItem) *Track {
	t.artists.items = append(t.artists.items, artists...)
	return t
}

// WithGenres appends genres.
func (t *Track) WithGenres(genres ...media.Genre) *Track {
	t.genres.items = append(t.genres.items, genres...)
	return t
}

// WithImages appends images.
func (t *Track) WithImages(images ...media.Image) *Track {
	t.images.items = append(t.images.items, images...)
	return t
}

// Album is an in-memory media.Album.
type Album struct {
	playable

	published utc.Time
	tracks    *Collection[media.Track]
	artists   *Collection[media.ArtistItem]
	genres    *Collection[media.Genre]
}

var _ media.Album = (*Album)(nil)

// NewAlbum returns an album named name owned by core.
func NewAlbum(core media.CoreID, name string) *Album {
	a := &Album{
		tracks:  NewCollection[media.Track](core),
		artists: NewCollection[media.ArtistItem](core),
		genres:  NewCollection[media.Genre](core),
	}
	a.init(a, core, media.KindAlbum, name)
	return a
}

func (a *Album) DatePublished() utc.Time { return a.published }
func (a *Album) Tracks() media.Collection[media.Track] { return a.tracks }
func (a *Album) Artists() media.Collection[media.ArtistItem] { return a.artists }
func (a *Album) Genres() media.Collection[media.Genre] { return a.genres }

// PlayTrack implements media.Album.
func (a *Album) PlayTrack(ctx context.Context, track media.Track) error {
	return a.playOwned(ctx, track)
}

// WithPublished sets the publication date.
func (a *Album) WithPublished(t time.Time) *Album { a.published = utc.New(t); return a }

// WithTracks appends tracks and links them back to the album.
func (a *Album) WithTracks(tracks ...*Track) *Album {
	for _, t := range tracks {
		t.WithAlbum(a)
		a.tracks.items = append(a.tracks.items, t)
	}
	return a
}

// WithArtists appends artists.
func (a *Album) WithArtists(artists ...media.ArtistItem) *Album {
	a.artists.items = append(a.artists.items, artists...)
	return a
}

// WithGenres appends genres.
func (a *Album) WithGenres(genres ...media.Genre) *Album {
	a.genres.items = append(a.genres.items, genres...)
	return a
}

// WithImages appends images.
func (a *Album) WithImages(images ...media.Image) *Album {
	a.images.items = append(a.images.items, images...)
	return a
}

// WithUrls appends urls.
func (a *Album) WithUrls(urls ...media.Url) *Album {
	a.urls.items = append(a.urls.items, urls...)
	return a
}

// Artist is an in-memory media.Artist.
type Artist struct {
	playable

	tracks *Collection[media.Track]
	albums *Collection[media.AlbumItem]
	genres *Collection[media.Genre]
}

var _ media.Artist = (*Artist)(nil)

// NewArtist returns an artist named name owned by core.
func NewArtist(core media.CoreID, name string) *Artist {
	a := &Artist{
		tracks: NewCollection[media.Track](core),
		albums: NewCollection[media.AlbumItem](core),
		genres: NewCollection[media.Genre](core),
	}
	a.init(a, core, media.KindArtist, name)
	return a
}

func (a *Artist) Tracks() media.Collection[media.Track] { return a.tracks }
func (a *Artist) Albums() media.Collection[media.AlbumItem] { return a.albums }
func (a *Artist) Genres() media.Collection[media.Genre] { return a.genres }

// PlayTrack implements media.Artist.
func (a *Artist) PlayTrack(ctx context.Context, track media.Track) error {
	return a.playOwned(ctx, track)
}

// PlayAlbum implements media.Artist.
func (a *Artist) PlayAlbum(ctx context.Context, album media.AlbumItem) error {
	return a.playOwned(ctx, album)
}

// WithTracks appends tracks.
func (a *Artist) WithTracks(tracks ...media.Track) *Artist {
	a.tracks.items = append(a.tracks.items, tracks...)
	return a
}

// WithAlbums appends albums.
func (a *Artist) WithAlbums(albums ...media.AlbumItem) *Artist {
	a.albums.items = append(a.albums.items, albums...)
	return a
}

// WithGenres appends genres.
func (a *Artist) WithGenres(genres ...media.Genre) *Artist {
	a.genres.items = append(a.genres.items, genres...)
	return a
}

// WithImages appends images.
func (a *Artist) WithImages(images ...media.Image) *Artist {
	a.images.items = append(a.images.items, images...)
	return a
}

// Playlist is an in-memory media.Playlist.
type Playlist struct {
	playable

	tracks *Collection[media.Track]
}

var _ media.Playlist = (*Playlist)(nil)

// NewPlaylist returns a playlist named name owned by core.
func NewPlaylist(core media.CoreID, name string) *Playlist {
	p := &Playlist{
		tracks: NewCollection[media.Track](core),
	}
	p.init(p, core, media.KindPlaylist, name)
	return p
}

func (p *Playlist) Tracks() media.Collection[media.Track] { return p.tracks }

// PlayTrack implements media.Playlist.
func (p *Playlist) PlayTrack(ctx context.Context, track media.Track) error {
	return p.playOwned(ctx, track)
}

// WithTracks appends tracks.
func (p *Playlist) WithTracks(tracks ...media.Track) *Playlist {
	p.tracks.items = append(p.tracks.items, tracks...)
	return p
}

// WithDescription sets the description.
func (p *Playlist) WithDescription(description string) *Playlist {
	p.description = description
	return p
}

// Group is an in-memory media.PlayableCollectionGroup. The same type backs
// album, artist, playlist and track collections; its kind tells them apart.
type Group struct {
	playable

	albums    *Collection[media.AlbumItem]
	artists   *Collection[media.ArtistItem]
	playlists *Collection[media.PlaylistItem]
	tracks    *Collection[media.Track]
	children  *Collection[media.PlayableCollectionGroup]
}

var _ media.PlayableCollectionGroup = (*Group)(nil)

// NewGroup returns a group of the given kind named name owned by core.
func NewGroup(core media.CoreID, kind media.Kind, name string) *Group {
	g := &Group{
		albums:    NewCollection[media.AlbumItem](core),
		artists:   NewCollection[media.ArtistItem](core),
		playlists: NewCollection[media.PlaylistItem](core),
		tracks:    NewCollection[media.Track](core),
		children:  NewCollection[media.PlayableCollectionGroup](core),
	}
	g.init(g, core, kind, name)
	return g
}

func (g *Group) Albums() media.Collection[media.AlbumItem] { return g.albums }
func (g *Group) Artists() media.Collection[media.ArtistItem] { return g.artists }
func (g *Group) Playlists() media.Collection[media.PlaylistItem] { return g.playlists }
func (g *Group) Tracks() media.Collection[media.Track] { return g.tracks }

func (g *Group) Children() media.Collection[media.PlayableCollectionGroup] {
	return g.children
}

// PlayAlbum implements media.AlbumCollection.
func (g *Group) PlayAlbum(ctx context.Context, album media.AlbumItem) error {
	return g.playOwned(ctx, album)
}

// PlayArtist implements media.ArtistCollection.
func (g *Group) PlayArtist(ctx context.Context, artist media.ArtistItem) error {
	return g.playOwned(ctx, artist)
}

// PlayPlaylist implements media.PlaylistCollection.
func (g *Group) PlayPlaylist(ctx context.Context, playlist media.PlaylistItem) error {
	return g.playOwned(ctx, playlist)
}

// PlayTrack implements media.TrackCollection.
func (g *Group) PlayTrack(ctx context.Context, track media.Track) error {
	return g.playOwned(ctx, track)
}

// PlayChild implements media.PlayableCollectionGroup.
func (g *Group) PlayChild(ctx context.Context, child media.PlayableCollectionGroup) error {
	return g.playOwned(ctx, child)
}

// WithAlbums appends albums.
func (g *Group) WithAlbums(albums ...media.AlbumItem) *Group {
	g.albums.items = append(g.albums.items, albums...)
	return g
}

// WithArtists appends artists.
func (g *Group) WithArtists(artists ...media.ArtistItem) *Group {
	g.artists.items = append(g.artists.items, artists...)
	return g
}

// WithPlaylists appends playlists.
func (g *Group) WithPlaylists(playlists ...media.PlaylistItem) *Group {
	g.playlists.items = append(g.playlists.items, playlists...)
	return g
}

// WithTracks appends tracks.
func (g *Group) WithTracks(tracks ...media.Track) *Group {
	g.tracks.items = append(g.tracks.items, tracks...)
	return g
}

// WithChildren appends child groups.
func (g *Group) WithChildren(children ...media.PlayableCollectionGroup) *Group {
	g.children.items = append(g.children.items, children...)
	return g
}

// Image is an in-memory media.Image.
type Image struct {
	core   media.CoreID
	id     string
	uri    string
	height float64
	width  float64
}

var _ media.Image = (*Image)(nil)

// NewImage returns an image owned by core.
func NewImage(core media.CoreID, uri string, width, height float64) *Image {
	return &Image{core: core, id: uuid.NewString(), uri: uri, width: width, height: height}
}

func (i *Image) ID() string { return i.id }
func (i *Image) Core() media.CoreID { return i.core }
func (i *Image) Kind() media.Kind { return media.KindImage }
func (i *Image) URI() string { return i.uri }
func (i *Image) Height() float64 { return i.height }
func (i *Image) Width() float64 { return i.width }

// Url is an in-memory media.Url.
type Url struct {
	core    media.CoreID
	id      string
	label   string
	href    string
	urlType media.UrlType
}

var _ media.Url = (*Url)(nil)

// NewUrl returns a url owned by core.
func NewUrl(core media.CoreID, label, href string, urlType media.UrlType) *Url {
	return &Url{core: core, id: uuid.NewString(), label: label, href: href, urlType: urlType}
}

func (u *Url) ID() string { return u.id }
func (u *Url) Core() media.CoreID { return u.core }
func (u *Url) Kind() media.Kind { return media.KindUrl }
func (u *Url) Label() string { return u.label }
func (u *Url) Href() string { return u.href }
func (u *Url) UrlType() media.UrlType { return u.urlType }

// Genre is an in-memory media.Genre.
type Genre struct {
	core media.CoreID
	id   string
	name string
}

var _ media.Genre = (*Genre)(nil)

// NewGenre returns a genre owned by core.
func NewGenre(core media.CoreID, name string) *Genre {
	return &Genre{core: core, id: uuid.NewString(), name: name}
}

func (g *Genre) ID() string { return g.id }
func (g *Genre) Core() media.CoreID { return g.core }
func (g *Genre) Kind() media.Kind { return media.KindGenre }
func (g *Genre) Name() string { return g.name }

// UserProfile is an in-memory media.UserProfile.
type UserProfile struct {
	core        media.CoreID
	id          string
	displayName string
	email       string
	region      string
	images      *Collection[media.Image]
	urls        *Collection[media.Url]
	changed     events.Feed[media.Change]
}

var _ media.UserProfile = (*UserProfile)(nil)

// NewUserProfile returns a profile owned by core.
func NewUserProfile(core media.CoreID, displayName, email, region string) *UserProfile {
	return &UserProfile{
		core:        core,
		id:          uuid.NewString(),
		displayName: displayName,
		email:       email,
		region:      region,
		images:      NewCollection[media.Image](core),
		urls:        NewCollection[media.Url](core),
	}
}

func (u *UserProfile) ID() string { return u.id }
func (u *UserProfile) Core() media.CoreID { return u.core }
func (u *UserProfile) Kind() media.Kind { return media.KindUserProfile }
func (u *UserProfile) DisplayName() string { return u.displayName }
func (u *UserProfile) Email() string { return u.email }
func (u *UserProfile) Region() string { return u.region }
func (u *UserProfile) Images() media.Collection[media.Image] { return u.images }
func (u *UserProfile) Urls() media.Collection[media.Url] { return u.urls }

// OnChanged implements media.Observable.
func (u *UserProfile) OnChanged(fn func(media.Change)) events.Subscription {
	return u.changed.Subscribe(fn)
}

// Device is an in-memory media.Device.
type Device struct {
	core       media.CoreID
	id         string
	name       string
	deviceType media.DeviceType

	mu      sync.RWMutex
	active  bool
	changed events.Feed[media.Change]
}

var _ media.Device = (*Device)(nil)

// NewDevice returns a device owned by core.
func NewDevice(core media.CoreID, name string, deviceType media.DeviceType, active bool) *Device {
	return &Device{core: core, id: uuid.NewString(), name: name, deviceType: deviceType, active: active}
}

func (d *Device) ID() string { return d.id }
func (d *Device) Core() media.CoreID { return d.core }
func (d *Device) Kind() media.Kind { return media.KindDevice }
func (d *Device) Name() string { return d.name }
func (d *Device) DeviceType() media.DeviceType { return d.deviceType }

func (d *Device) IsActive() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// OnChanged implements media.Observable.
func (d *Device) OnChanged(fn func(media.Change)) events.Subscription {
	return d.changed.Subscribe(fn)
}

// SwitchTo makes the device active.
func (d *Device) SwitchTo(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.active = true
	d.mu.Unlock()
	d.changed.Emit(media.Change{Item: d, Property: media.PropIsActive, Value: true})
	return nil
}

// DraftTrack is a track no core holds yet. Inserting it into a merged
// collection asks the target cores to create it.
type DraftTrack struct {
	*Track
	targets []media.CoreID
}

var _ media.InitialData = (*DraftTrack)(nil)

// NewDraftTrack returns a draft for the given cores, or for every core when
// targets is empty.
func NewDraftTrack(name string, targets ...media.CoreID) *DraftTrack {
	return &DraftTrack{Track: NewTrack("", name), targets: targets}
}

// TargetCores implements media.InitialData.
func (d *DraftTrack) TargetCores() []media.CoreID { return d.targets }

// DraftPlaylist is a playlist no core holds yet.
type DraftPlaylist struct {
	*Playlist
	targets []media.CoreID
}

var _ media.InitialData = (*DraftPlaylist)(nil)

// NewDraftPlaylist returns a draft for the given cores.
func NewDraftPlaylist(name string, targets ...media.CoreID) *DraftPlaylist {
	return &DraftPlaylist{Playlist: NewPlaylist("", name), targets: targets}
}

// TargetCores implements media.InitialData.
func (d *DraftPlaylist) TargetCores() []media.CoreID { return d.targets }

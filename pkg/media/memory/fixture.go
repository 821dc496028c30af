package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/viant/afs"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
)

// Fixture describes a set of in-memory cores in YAML.
type Fixture struct {
	Cores []CoreFixture `yaml:"cores"`
}

// CoreFixture describes one core.
type CoreFixture struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	Library        GroupFixture    `yaml:"library"`
	Discoverables  *GroupFixture   `yaml:"discoverables,omitempty"`
	Pins           *GroupFixture   `yaml:"pins,omitempty"`
	RecentlyPlayed *GroupFixture   `yaml:"recently_played,omitempty"`
	Search         bool            `yaml:"search,omitempty"`
	User           *UserFixture    `yaml:"user,omitempty"`
	Devices        []DeviceFixture `yaml:"devices,omitempty"`
}

// GroupFixture describes the content of a collection group.
type GroupFixture struct {
	Albums    []AlbumFixture    `yaml:"albums,omitempty"`
	Artists   []ArtistFixture   `yaml:"artists,omitempty"`
	Playlists []PlaylistFixture `yaml:"playlists,omitempty"`
	Tracks    []TrackFixture    `yaml:"tracks,omitempty"`
}

// AlbumFixture describes an album and its tracks.
type AlbumFixture struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Published   string         `yaml:"published,omitempty"`
	Artists     []string       `yaml:"artists,omitempty"`
	Genres      []string       `yaml:"genres,omitempty"`
	Images      []ImageFixture `yaml:"images,omitempty"`
	Tracks      []TrackFixture `yaml:"tracks,omitempty"`
}

// ArtistFixture describes an artist.
type ArtistFixture struct {
	Name   string         `yaml:"name"`
	Genres []string       `yaml:"genres,omitempty"`
	Images []ImageFixture `yaml:"images,omitempty"`
}

// PlaylistFixture describes a playlist. Tracks reference track names in the
// same group.
type PlaylistFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tracks      []string `yaml:"tracks,omitempty"`
}

// TrackFixture describes a track.
type TrackFixture struct {
	Name     string   `yaml:"name"`
	Number   int      `yaml:"number,omitempty"`
	Disc     int      `yaml:"disc,omitempty"`
	Type     string   `yaml:"type,omitempty"`
	Duration string   `yaml:"duration,omitempty"`
	Language string   `yaml:"language,omitempty"`
	Explicit bool     `yaml:"explicit,omitempty"`
	Lyrics   string   `yaml:"lyrics,omitempty"`
	Artists  []string `yaml:"artists,omitempty"`
	Genres   []string `yaml:"genres,omitempty"`
}

// ImageFixture describes an image.
type ImageFixture struct {
	URI    string  `yaml:"uri"`
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

// UserFixture describes a user profile.
type UserFixture struct {
	DisplayName string `yaml:"display_name"`
	Email       string `yaml:"email,omitempty"`
	Region      string `yaml:"region,omitempty"`
}

// DeviceFixture describes a playback device.
type DeviceFixture struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type,omitempty"`
	Active bool   `yaml:"active,omitempty"`
}

// LoadFixture downloads the fixture at url and builds its cores. Any scheme
// supported by afs works, including plain paths and mem:// urls.
func LoadFixture(ctx context.Context, url string) ([]*Core, error) {
	data, err := afs.New().DownloadWithURL(ctx, url)
	if err != nil {
		return nil, errors.WrapResource("download", "fixture", url, err)
	}
	return ParseFixture(data, url)
}

// ParseFixture decodes YAML data and builds its cores. file is only used
// in error messages.
func ParseFixture(data []byte, file string) ([]*Core, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", file, err)
	}
	cores, err := f.Build()
	if err != nil {
		return nil, errors.NewParseError("yaml", file, "invalid fixture", err)
	}
	return cores, nil
}

// Build creates the cores described by the fixture.
func (f *Fixture) Build() ([]*Core, error) {
	seen := make(map[string]bool, len(f.Cores))
	cores := make([]*Core, 0, len(f.Cores))
	for i, cf := range f.Cores {
		if cf.ID == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("cores[%d].id", i), "", "is required")
		}
		if seen[cf.ID] {
			return nil, errors.NewAlreadyExistsError("core", cf.ID)
		}
		seen[cf.ID] = true

		core, err := cf.build()
		if err != nil {
			return nil, err
		}
		cores = append(cores, core)
	}
	return cores, nil
}

func (cf *CoreFixture) build() (*Core, error) {
	id := media.CoreID(cf.ID)
	name := cf.Name
	if name == "" {
		name = cf.ID
	}
	core := NewCore(id, name)

	if err := cf.Library.fill(core.library); err != nil {
		return nil, err
	}

	optional := []struct {
		fixture *GroupFixture
		kind    media.Kind
		name    string
		attach  func(*Group) *Core
	}{
		{cf.Discoverables, media.KindDiscoverables, "Discover", core.WithDiscoverables},
		{cf.Pins, media.KindPins, "Pins", core.WithPins},
		{cf.RecentlyPlayed, media.KindRecentlyPlayed, "Recently played", core.WithRecentlyPlayed},
	}
	for _, o := range optional {
		if o.fixture == nil {
			continue
		}
		g := NewGroup(id, o.kind, o.name)
		if err := o.fixture.fill(g); err != nil {
			return nil, err
		}
		o.attach(g)
	}

	if cf.Search {
		core.WithSearch()
	}
	if cf.User != nil {
		core.WithUser(NewUserProfile(id, cf.User.DisplayName, cf.User.Email, cf.User.Region))
	}
	for _, df := range cf.Devices {
		deviceType := media.DeviceType(df.Type)
		if deviceType == "" {
			deviceType = media.DeviceTypeLocal
		}
		core.WithDevices(NewDevice(id, df.Name, deviceType, df.Active))
	}
	return core, nil
}

// fill populates g. Artists referenced by albums or tracks but not listed
// are created on the fly; album tracks are added to the group's tracks.
func (gf *GroupFixture) fill(g *Group) error {
	core := g.core
	artists := make(map[string]*Artist)
	genres := make(map[string]*Genre)

	artist := func(name string) *Artist {
		if a, ok := artists[name]; ok {
			return a
		}
		a := NewArtist(core, name)
		artists[name] = a
		g.artists.items = append(g.artists.items, a)
		return a
	}
	genre := func(name string) *Genre {
		if gn, ok := genres[name]; ok {
			return gn
		}
		gn := NewGenre(core, name)
		genres[name] = gn
		return gn
	}

	for _, af := range gf.Artists {
		a := artist(af.Name)
		for _, name := range af.Genres {
			a.WithGenres(genre(name))
		}
		for _, img := range af.Images {
			a.WithImages(NewImage(core, img.URI, img.Width, img.Height))
		}
	}

	tracks := make(map[string]*Track)
	addTrack := func(tf TrackFixture, album *Album) (*Track, error) {
		t, err := tf.build(core)
		if err != nil {
			return nil, err
		}
		for _, name := range tf.Artists {
			a := artist(name)
			t.WithArtists(a)
			a.WithTracks(t)
		}
		for _, name := range tf.Genres {
			t.WithGenres(genre(name))
		}
		if album != nil {
			album.WithTracks(t)
		}
		if _, dup := tracks[t.Name()]; !dup {
			tracks[t.Name()] = t
		}
		g.tracks.items = append(g.tracks.items, t)
		return t, nil
	}

	for _, af := range gf.Albums {
		album := NewAlbum(core, af.Name)
		album.description = af.Description
		if af.Published != "" {
			published, err := time.Parse(time.DateOnly, af.Published)
			if err != nil {
				return errors.NewValidationError("published", af.Published, "must be YYYY-MM-DD")
			}
			album.WithPublished(published)
		}
		for _, name := range af.Artists {
			a := artist(name)
			album.WithArtists(a)
			a.WithAlbums(album)
		}
		for _, name := range af.Genres {
			album.WithGenres(genre(name))
		}
		for _, img := range af.Images {
			album.WithImages(NewImage(core, img.URI, img.Width, img.Height))
		}
		g.albums.items = append(g.albums.items, album)
		for _, tf := range af.Tracks {
			if _, err := addTrack(tf, album); err != nil {
				return err
			}
		}
	}

	for _, tf := range gf.Tracks {
		if _, err := addTrack(tf, nil); err != nil {
			return err
		}
	}

	for _, pf := range gf.Playlists {
		p := NewPlaylist(core, pf.Name).WithDescription(pf.Description)
		for _, name := range pf.Tracks {
			t, ok := tracks[name]
			if !ok {
				return errors.NewNotFoundError("track", name)
			}
			p.WithTracks(t)
		}
		g.playlists.items = append(g.playlists.items, p)
	}
	return nil
}

func (tf TrackFixture) build(core media.CoreID) (*Track, error) {
	if tf.Name == "" {
		return nil, errors.NewValidationError("track.name", "", "is required")
	}
	t := NewTrack(core, tf.Name).
		WithNumber(tf.Number).
		WithLyrics(tf.Lyrics).
		WithLanguage(tf.Language, tf.Explicit)
	if tf.Disc > 0 {
		t.WithDisc(tf.Disc)
	}
	if tf.Type != "" {
		t.WithType(media.TrackType(tf.Type))
	}
	if tf.Duration != "" {
		d, err := time.ParseDuration(tf.Duration)
		if err != nil {
			return nil, errors.NewValidationError("track.duration", tf.Duration, err.Error())
		}
		t.WithDuration(d)
	}
	return t, nil
}


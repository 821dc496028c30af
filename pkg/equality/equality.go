// Package equality decides whether two provider items denote the same
// logical entity. It is the only authority the merge engine consults when
// choosing between folding an item into an existing merged item and creating
// a new one.
//
// Equal is total: it never panics for any pair of items and it is symmetric.
// Key returns a bucket key consistent with Equal, so that Equal(a, b)
// implies Key(a) == Key(b) whenever both are keyable.
package equality

import (
	"encoding/binary"
	"hash"
	"reflect"

	"github.com/minio/highwayhash"

	"github.com/agentstation/strix/pkg/media"
)

// Policy names how items of a kind compare.
type Policy int

// Policies.
const (
	// ByName compares the Name field ordinally.
	ByName Policy = iota
	// ByTrack compares name, number, type, disc, duration and album.
	ByTrack
	// ByUrl compares href, type and label.
	ByUrl
	// Always treats every two items of the kind as equal.
	Always
	// Never keeps every item distinct.
	Never
)

// String returns the name of the policy.
func (p Policy) String() string {
	switch p {
	case ByName:
		return "by_name"
	case ByTrack:
		return "by_track"
	case ByUrl:
		return "by_url"
	case Always:
		return "always"
	case Never:
		return "never"
	}
	return "unknown"
}

var policies = map[media.Kind]Policy{
	media.KindTrack:              ByTrack,
	media.KindAlbum:              ByName,
	media.KindAlbumCollection:    ByName,
	media.KindArtist:             ByName,
	media.KindArtistCollection:   ByName,
	media.KindPlaylist:           ByName,
	media.KindPlaylistCollection: ByName,
	media.KindTrackCollection:    ByName,
	media.KindGenre:              ByName,
	media.KindUrl:                ByUrl,
	media.KindImage:              Never,
	media.KindUserProfile:        Never,
	media.KindDevice:             Never,
	media.KindCollectionGroup:    ByName,
	media.KindLibrary:            ByName,
	media.KindDiscoverables:      ByName,
	media.KindRecentlyPlayed:     ByName,
	media.KindPins:               ByName,
	media.KindSearchResults:      Always,
	media.KindSearchHistory:      Always,
	media.KindSearch:             Always,
}

// PolicyFor returns the policy applied to kind. Unknown kinds are never equal.
func PolicyFor(kind media.Kind) Policy {
	if p, ok := policies[kind]; ok {
		return p
	}
	return Never
}

type named interface {
	Name() string
}

// Equal reports whether a and b are the same logical entity. Items of
// different kinds are never equal, and a nil item equals nothing.
func Equal(a, b media.Item) bool {
	if isNil(a) || isNil(b) {
		return false
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch PolicyFor(a.Kind()) {
	case Always:
		return true
	case ByName:
		return nameOf(a) == nameOf(b)
	case ByTrack:
		ta, okA := a.(media.Track)
		tb, okB := b.(media.Track)
		if !okA || !okB {
			return false
		}
		return TracksEqual(ta, tb)
	case ByUrl:
		ua, okA := a.(media.Url)
		ub, okB := b.(media.Url)
		if !okA || !okB {
			return false
		}
		return ua.Href() == ub.Href() && ua.UrlType() == ub.UrlType() && ua.Label() == ub.Label()
	}
	return false
}

// TracksEqual compares two tracks field by field. The albums must either
// both be missing or be equal themselves.
func TracksEqual(a, b media.Track) bool {
	if a.Name() != b.Name() ||
		a.TrackNumber() != b.TrackNumber() ||
		a.TrackType() != b.TrackType() ||
		a.DiscNumber() != b.DiscNumber() ||
		a.Duration() != b.Duration() {
		return false
	}

	albumA, albumB := a.Album(), b.Album()
	switch {
	case isNil(albumA) && isNil(albumB):
		return true
	case isNil(albumA) || isNil(albumB):
		return false
	}
	return Equal(albumA, albumB)
}

// key is fixed so bucket keys are stable across runs.
var key = []byte("strix:equality:bucket-key:000001")

// Key returns the bucket key of item. The second result is false for items
// that are never equal to anything, which need no bucket.
func Key(item media.Item) (uint64, bool) {
	if isNil(item) {
		return 0, false
	}

	policy := PolicyFor(item.Kind())
	if policy == Never {
		return 0, false
	}

	h, err := highwayhash.New64(key)
	if err != nil {
		return 0, false
	}
	writeString(h, string(item.Kind()))

	switch policy {
	case ByName:
		writeString(h, nameOf(item))
	case ByTrack:
		t, ok := item.(media.Track)
		if !ok {
			return 0, false
		}
		writeString(h, t.Name())
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(t.TrackNumber()))
		_, _ = h.Write(buf[:])
	case ByUrl:
		u, ok := item.(media.Url)
		if !ok {
			return 0, false
		}
		writeString(h, u.Href())
	}
	return h.Sum64(), true
}

func writeString(h hash.Hash64, s string) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(s))
}

func nameOf(item media.Item) string {
	if n, ok := item.(named); ok {
		return n.Name()
	}
	return ""
}

// isNil catches both untyped nil and typed nil pointers held in an interface.
func isNil(item media.Item) bool {
	if item == nil {
		return true
	}
	v := reflect.ValueOf(item)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

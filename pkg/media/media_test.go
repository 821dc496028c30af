package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/strix/pkg/media"
)

func TestKind_IsValid(t *testing.T) {
	for _, k := range media.Kinds() {
		assert.True(t, k.IsValid(), k.String())
	}
	assert.False(t, media.Kind("podcast_feed").IsValid())
}

func TestKind_IsGroup(t *testing.T) {
	groups := []media.Kind{
		media.KindCollectionGroup, media.KindLibrary, media.KindDiscoverables,
		media.KindRecentlyPlayed, media.KindPins, media.KindSearchHistory, media.KindSearchResults,
	}
	for _, k := range groups {
		assert.True(t, k.IsGroup(), k.String())
	}
	assert.False(t, media.KindAlbum.IsGroup())
	assert.False(t, media.KindAlbumCollection.IsGroup())
}

type draft []media.CoreID

func (d draft) TargetCores() []media.CoreID { return d }

func TestTargets(t *testing.T) {
	assert.True(t, media.Targets(draft{"local"}, "local"))
	assert.False(t, media.Targets(draft{"local"}, "spotify"))
	assert.True(t, media.Targets(draft(nil), "spotify"))
}

func TestItemsChanged_Empty(t *testing.T) {
	assert.True(t, media.ItemsChanged[int]{}.Empty())
	assert.False(t, media.ItemsChanged[int]{Added: []media.Indexed[int]{{Item: 1}}}.Empty())
}

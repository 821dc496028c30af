package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/strix/pkg/media"
	"github.com/agentstation/strix/pkg/media/memory"
)

func tracks(core media.CoreID, names ...string) []media.Track {
	out := make([]media.Track, len(names))
	for i, name := range names {
		out[i] = memory.NewTrack(core, name).WithNumber(i + 1)
	}
	return out
}

func TestCollection_Items(t *testing.T) {
	ctx := context.Background()
	c := memory.NewCollection(media.CoreID("local"), tracks("local", "a", "b", "c")...)

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{"all", 10, 0, []string{"a", "b", "c"}},
		{"window", 1, 1, []string{"b"}},
		{"past end", 5, 3, nil},
		{"negative offset", 5, -1, nil},
		{"zero limit", 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := c.Items(ctx, tt.limit, tt.offset)
			require.NoError(t, err)
			var names []string
			for _, item := range items {
				names = append(names, item.Name())
			}
			assert.Equal(t, tt.want, names)
		})
	}
	assert.Equal(t, len(tests), c.Fetches())
}

func TestCollection_AddRemoveEvents(t *testing.T) {
	ctx := context.Background()
	c := memory.NewCollection(media.CoreID("local"), tracks("local", "a", "b")...)

	var changes []media.ItemsChanged[media.Track]
	var counts []int
	c.OnItemsChanged(func(e media.ItemsChanged[media.Track]) { changes = append(changes, e) })
	c.OnCountChanged(func(n int) { counts = append(counts, n) })

	added := memory.NewTrack("local", "x")
	require.NoError(t, c.Add(ctx, added, 1))
	require.NoError(t, c.Remove(ctx, 0))

	require.Len(t, changes, 2)
	assert.Equal(t, 1, changes[0].Added[0].Index)
	assert.Same(t, added, changes[0].Added[0].Item)
	assert.Equal(t, "a", changes[1].Removed[0].Item.Name())
	assert.Equal(t, []int{3, 2}, counts)

	names := []string{}
	for _, item := range c.Snapshot() {
		names = append(names, item.Name())
	}
	assert.Equal(t, []string{"x", "b"}, names)
	assert.Equal(t, 1, c.Adds())
	assert.Equal(t, 1, c.Removes())
}

func TestCollection_OutOfRange(t *testing.T) {
	ctx := context.Background()
	c := memory.NewCollection[media.Track]("local")

	assert.Error(t, c.Add(ctx, memory.NewTrack("local", "a"), 2))
	assert.Error(t, c.Remove(ctx, 0))

	ok, err := c.IsAddAvailable(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsRemoveAvailable(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollection_Availability(t *testing.T) {
	ctx := context.Background()
	c := memory.NewCollection(media.CoreID("local"), tracks("local", "a", "b")...)
	c.SetAddAvailable(func(int) bool { return false })
	c.SetRemoveAvailable(func(i int) bool { return i == 1 })

	ok, _ := c.IsAddAvailable(ctx, 0)
	assert.False(t, ok)
	ok, _ = c.IsRemoveAvailable(ctx, 0)
	assert.False(t, ok)
	ok, _ = c.IsRemoveAvailable(ctx, 1)
	assert.True(t, ok)
}

func TestCollection_Errors(t *testing.T) {
	boom := errors.New("backend down")
	c := memory.NewCollection(media.CoreID("local"), tracks("local", "a")...)
	c.SetError(boom)

	_, err := c.Items(context.Background(), 1, 0)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.SetError(nil)
	_, err = c.Items(ctx, 1, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollection_Append(t *testing.T) {
	c := memory.NewCollection[media.Track]("local")
	var got media.ItemsChanged[media.Track]
	c.OnItemsChanged(func(e media.ItemsChanged[media.Track]) { got = e })

	c.Append(tracks("local", "a", "b")...)
	require.Len(t, got.Added, 2)
	assert.Equal(t, 0, got.Added[0].Index)
	assert.Equal(t, 1, got.Added[1].Index)
	assert.Equal(t, 2, c.Count())
}

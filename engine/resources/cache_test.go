package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rezcache/engine/core"
)

func named(name string) *stubResource {
	r := &stubResource{}
	r.SetName(name)
	return r
}

func TestCacheAddGetRemove(t *testing.T) {
	c := NewCache()
	r := named("hero")

	require.NoError(t, c.Add(r))
	got, ok := c.Get("hero")
	require.True(t, ok)
	assert.True(t, got == Resource(r))

	c.Remove(r)
	got, ok = c.Get("hero")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCacheAddReplacesOnNameCollision(t *testing.T) {
	c := NewCache()
	old := named("hero")
	replacement := named("hero")

	require.NoError(t, c.Add(old))
	require.NoError(t, c.Add(replacement))
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("hero")
	require.True(t, ok)
	assert.True(t, got == Resource(replacement))

	// removing the replaced instance leaves the current entry alone
	c.Remove(old)
	got, ok = c.Get("hero")
	require.True(t, ok)
	assert.True(t, got == Resource(replacement))
}

func TestCacheRejectsUnnamed(t *testing.T) {
	c := NewCache()
	assert.ErrorIs(t, c.Add(New()), core.ErrUnnamedResource)
	assert.ErrorIs(t, c.Add(nil), core.ErrUnnamedResource)
	assert.Equal(t, 0, c.Len())
}

func TestCacheRemoveAllAndNames(t *testing.T) {
	events := core.NewEvents()
	var removed int
	events.Register(core.EVENT_CODE_RESOURCE_REMOVED, nil, func(core.SystemEventCode, interface{}, interface{}, core.EventContext) bool {
		removed++
		return false
	})

	c := NewCache(WithCacheEvents(events))
	for _, n := range []string{"villain", "hero", "castle"} {
		require.NoError(t, c.Add(named(n)))
	}
	assert.Equal(t, []string{"castle", "hero", "villain"}, c.Names())

	r, ok := c.RemoveNamed("hero")
	require.True(t, ok)
	assert.Equal(t, "hero", r.Name())
	_, ok = c.RemoveNamed("hero")
	assert.False(t, ok)

	c.RemoveAll()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Names())
	assert.Equal(t, 3, removed)
}

func TestCacheGetMissing(t *testing.T) {
	c := NewCache()
	r, ok := c.Get("nothing")
	assert.False(t, ok)
	assert.Nil(t, r)
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsRegisterAndFire(t *testing.T) {
	e := NewEvents()
	var got []string
	listenerA, listenerB := new(int), new(int)

	assert.True(t, e.Register(EVENT_CODE_RESOURCE_LOADED, listenerA, func(code SystemEventCode, sender, listenerInst interface{}, data EventContext) bool {
		got = append(got, "a:"+data.Name)
		return false
	}))
	assert.True(t, e.Register(EVENT_CODE_RESOURCE_LOADED, listenerB, func(code SystemEventCode, sender, listenerInst interface{}, data EventContext) bool {
		assert.True(t, listenerInst == listenerB)
		got = append(got, "b:"+data.Name)
		return true
	}))

	assert.True(t, e.Fire(EVENT_CODE_RESOURCE_LOADED, nil, EventContext{Name: "hero"}))
	assert.Equal(t, []string{"a:hero", "b:hero"}, got)

	assert.False(t, e.Fire(EVENT_CODE_RESOURCE_REMOVED, nil, EventContext{Name: "hero"}))
}

func TestEventsHandledStopsPropagation(t *testing.T) {
	e := NewEvents()
	calls := 0
	handled := func(SystemEventCode, interface{}, interface{}, EventContext) bool {
		calls++
		return true
	}
	e.Register(EVENT_CODE_RESOURCE_ADDED, 1, handled)
	e.Register(EVENT_CODE_RESOURCE_ADDED, 2, handled)

	assert.True(t, e.Fire(EVENT_CODE_RESOURCE_ADDED, nil, EventContext{}))
	assert.Equal(t, 1, calls)
}

func TestEventsDuplicateAndUnregister(t *testing.T) {
	var e Events
	noop := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return false }

	assert.False(t, e.Register(EVENT_CODE_RESOURCE_ADDED, nil, nil))
	assert.True(t, e.Register(EVENT_CODE_RESOURCE_ADDED, "watcher", noop))
	assert.False(t, e.Register(EVENT_CODE_RESOURCE_ADDED, "watcher", noop))
	assert.True(t, e.Register(EVENT_CODE_RESOURCE_REMOVED, "watcher", noop))

	assert.True(t, e.Unregister(EVENT_CODE_RESOURCE_ADDED, "watcher"))
	assert.False(t, e.Unregister(EVENT_CODE_RESOURCE_ADDED, "watcher"))
	assert.True(t, e.Register(EVENT_CODE_RESOURCE_ADDED, "watcher", noop))
}

func TestEventsNilFire(t *testing.T) {
	var e *Events
	assert.False(t, e.Fire(EVENT_CODE_RESOURCE_LOADED, nil, EventContext{}))
}

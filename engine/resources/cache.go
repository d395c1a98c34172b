package resources

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/rezcache/engine/core"
)

// Cache is a name-keyed registry of loaded resources. There is at most one
// entry per name. Entries are never invalidated when the backing file changes;
// callers evict explicitly with Remove or RemoveAll.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Resource

	events *core.Events
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheEvents makes the cache fire EVENT_CODE_RESOURCE_ADDED and
// EVENT_CODE_RESOURCE_REMOVED on the given bus.
func WithCacheEvents(events *core.Events) CacheOption {
	return func(c *Cache) {
		c.events = events
	}
}

func NewCache(options ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]Resource),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get returns the cached resource with the given name, or false if none is cached.
func (c *Cache) Get(name string) (Resource, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[name]
	return r, ok
}

// Add caches the resource under its name, replacing any resource already
// cached with that name.
func (c *Cache) Add(r Resource) error {
	if r == nil || r.Name() == "" {
		return core.ErrUnnamedResource
	}
	name := r.Name()

	c.mu.Lock()
	old, replaced := c.entries[name]
	c.entries[name] = r
	c.mu.Unlock()

	if replaced && old != r {
		core.LogDebug("Resource '%s' replaced in cache.", name)
		c.events.Fire(core.EVENT_CODE_RESOURCE_REMOVED, c, core.EventContext{Name: name, Resource: old})
	}
	c.events.Fire(core.EVENT_CODE_RESOURCE_ADDED, c, core.EventContext{Name: name, Resource: r})
	return nil
}

// addLoaded caches a freshly loaded resource unless its name is already
// taken. An entry of the same kind wins and is returned instead; an entry of
// another kind is a *TypeMismatchError.
func (c *Cache) addLoaded(r Resource) (Resource, error) {
	if r == nil || r.Name() == "" {
		return nil, core.ErrUnnamedResource
	}
	name := r.Name()

	c.mu.Lock()
	if cached, ok := c.entries[name]; ok {
		c.mu.Unlock()
		if reflect.TypeOf(cached) != reflect.TypeOf(r) {
			return nil, &TypeMismatchError{
				Name:     name,
				Expected: fmt.Sprintf("%T", r),
				Actual:   fmt.Sprintf("%T", cached),
			}
		}
		return cached, nil
	}
	c.entries[name] = r
	c.mu.Unlock()

	c.events.Fire(core.EVENT_CODE_RESOURCE_ADDED, c, core.EventContext{Name: name, Resource: r})
	return r, nil
}

// Remove evicts the resource. Nothing happens if a different instance is
// cached under the same name.
func (c *Cache) Remove(r Resource) {
	if r == nil {
		return
	}
	name := r.Name()

	c.mu.Lock()
	cached, ok := c.entries[name]
	if !ok || cached != r {
		c.mu.Unlock()
		return
	}
	delete(c.entries, name)
	c.mu.Unlock()

	c.events.Fire(core.EVENT_CODE_RESOURCE_REMOVED, c, core.EventContext{Name: name, Resource: r})
}

// RemoveNamed evicts whatever is cached under the name and returns it.
func (c *Cache) RemoveNamed(name string) (Resource, bool) {
	c.mu.Lock()
	r, ok := c.entries[name]
	delete(c.entries, name)
	c.mu.Unlock()

	if ok {
		c.events.Fire(core.EVENT_CODE_RESOURCE_REMOVED, c, core.EventContext{Name: name, Resource: r})
	}
	return r, ok
}

func (c *Cache) RemoveAll() {
	c.mu.Lock()
	old := c.entries
	c.entries = make(map[string]Resource)
	c.mu.Unlock()

	for name, r := range old {
		c.events.Fire(core.EVENT_CODE_RESOURCE_REMOVED, c, core.EventContext{Name: name, Resource: r})
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Names returns the cached names in sorted order.
func (c *Cache) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.mu.RUnlock()

	slices.Sort(names)
	return names
}

package resources

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/spaghettifunk/rezcache/engine/core"
)

var errEmptyPath = errors.New("empty file path")

// Loader drives the loading of resources: it resolves paths, infers names and
// directories, calls the ProcessFile primitive of the concrete kind and places
// loaded instances in its Cache.
//
// Resource kinds are registered by file extension so that Open can pick the
// right kind for a path.
type Loader struct {
	cache    *Cache
	resolver *PathResolver
	events   *core.Events
	metrics  *core.Metrics

	kindsMu sync.RWMutex
	kinds   map[string]Factory[Resource]

	sf singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

func WithCache(c *Cache) LoaderOption {
	return func(l *Loader) {
		l.cache = c
	}
}

// WithRoot sets the directory relative paths are resolved against.
func WithRoot(root string) LoaderOption {
	return func(l *Loader) {
		l.resolver = NewPathResolver(root)
	}
}

func WithEvents(events *core.Events) LoaderOption {
	return func(l *Loader) {
		l.events = events
	}
}

func WithMetrics(metrics *core.Metrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = metrics
	}
}

func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{
		kinds: make(map[string]Factory[Resource]),
	}
	for _, option := range options {
		option(l)
	}
	if l.resolver == nil {
		l.resolver = NewPathResolver("")
	}
	if l.metrics == nil {
		l.metrics = core.NewMetrics()
	}
	if l.cache == nil {
		l.cache = NewCache(WithCacheEvents(l.events))
	}
	return l
}

func (l *Loader) Cache() *Cache {
	return l.cache
}

func (l *Loader) Resolver() *PathResolver {
	return l.resolver
}

func (l *Loader) Metrics() *core.Metrics {
	return l.metrics
}

func (l *Loader) Events() *core.Events {
	return l.events
}

// RegisterKind associates a resource kind with one or more file extensions
// (".obj", ".png"). An extension already taken by another kind is not
// registered again.
func (l *Loader) RegisterKind(newFn Factory[Resource], exts ...string) error {
	l.kindsMu.Lock()
	defer l.kindsMu.Unlock()

	for _, ext := range exts {
		if _, ok := l.kinds[normalizeExt(ext)]; ok {
			err := fmt.Errorf("resource kind for extension %q already exists and will not be registered", ext)
			core.LogError("%s", err)
			return err
		}
	}
	for _, ext := range exts {
		l.kinds[normalizeExt(ext)] = newFn
	}
	core.LogDebug("Resource kind registered for %v.", exts)
	return nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Supports reports whether a resource kind is registered for the path's extension.
func (l *Loader) Supports(path string) bool {
	_, err := l.kindFor(path)
	return err == nil
}

func (l *Loader) kindFor(path string) (Factory[Resource], error) {
	ext := ExtensionOf(path)
	l.kindsMu.RLock()
	newFn, ok := l.kinds[ext]
	l.kindsMu.RUnlock()
	if !ok {
		return nil, &UnknownKindError{Ext: ext}
	}
	return newFn, nil
}

// LoadFromFile loads the file at path into r. The path may be absolute or
// relative to the loader root.
//
// If r has no name, it is set to the file name without extension. If r has no
// directory, it is set to the directory containing the file. Loading a
// resource that was already loaded fails with core.ErrAlreadyLoaded and leaves
// it untouched. On any failure r is left exactly as it was before the call.
func (l *Loader) LoadFromFile(r Resource, path string) error {
	b := r.base()
	if b.wasLoaded {
		err := &LoadError{Name: r.Name(), Path: path, Err: core.ErrAlreadyLoaded}
		core.LogError("%s. A resource can only be loaded once.", err)
		return err
	}
	if path == "" {
		return &LoadError{Name: r.Name(), Path: path, Err: errEmptyPath}
	}

	absPath, err := l.resolver.Resolve(path)
	if err != nil {
		return &LoadError{Name: r.Name(), Path: path, Err: err}
	}

	prevName, prevDir := r.Name(), r.Directory()
	if prevName == "" {
		r.SetName(NameFromPath(absPath))
	}
	if prevDir == "" {
		r.SetDirectory(DirectoryFromPath(absPath))
	}
	core.LogInfo("Loading %T '%s' from file '%s'.", r, r.Name(), absPath)

	clock := core.NewClock()
	clock.Start()
	if err := r.ProcessFile(absPath); err != nil {
		loadErr := &LoadError{Name: r.Name(), Path: absPath, Err: err}
		r.SetName(prevName)
		r.SetDirectory(prevDir)

		l.metrics.RecordFailure()
		l.events.Fire(core.EVENT_CODE_RESOURCE_LOAD_FAILED, l, core.EventContext{Name: loadErr.Name, Path: absPath})
		core.LogError("%s", loadErr)
		return loadErr
	}
	clock.Stop()
	b.wasLoaded = true

	l.metrics.RecordLoad(clock.Elapsed())
	l.events.Fire(core.EVENT_CODE_RESOURCE_LOADED, l, core.EventContext{Name: r.Name(), Path: absPath, Resource: r})
	core.LogDebug("Resource '%s' loaded in %s.", r.Name(), clock.Elapsed())
	return nil
}

// SaveToFile writes r to path, which may be absolute or relative to the loader root.
func (l *Loader) SaveToFile(r Resource, path string) error {
	absPath, err := l.resolver.Resolve(path)
	if err != nil {
		return err
	}
	if err := r.SaveToFile(absPath); err != nil {
		core.LogError("Could not save resource '%s' to '%s': %s", r.Name(), absPath, err)
		return fmt.Errorf("failed to save %s: %w", absPath, err)
	}
	core.LogInfo("Resource '%s' saved to '%s'.", r.Name(), absPath)
	return nil
}

// Open returns the resource for path through the cache, picking the kind
// registered for the path's extension.
func (l *Loader) Open(path string) (Resource, error) {
	newFn, err := l.kindFor(path)
	if err != nil {
		return nil, err
	}
	return l.resourceFromFile(NameFromPath(path), path, newFn)
}

// OpenUncached loads a new instance of the kind registered for the path's
// extension, without consulting or populating the cache.
func (l *Loader) OpenUncached(path string) (Resource, error) {
	newFn, err := l.kindFor(path)
	if err != nil {
		return nil, err
	}
	return NewFromFile(l, newFn, path)
}

func (l *Loader) resourceFromFile(name, path string, newFn Factory[Resource]) (Resource, error) {
	if name == "" {
		return nil, &LoadError{Path: path, Err: core.ErrUnnamedResource}
	}
	kind := reflect.TypeOf(newFn())

	if r, ok := l.cache.Get(name); ok {
		if err := checkKind(name, kind, r); err != nil {
			return nil, err
		}
		l.metrics.RecordHit()
		return r, nil
	}

	// Loads of different kinds that share a name do not wait on each other.
	key := name + ExtensionOf(path)
	v, err, _ := l.sf.Do(key, func() (interface{}, error) {
		if r, ok := l.cache.Get(name); ok {
			if err := checkKind(name, kind, r); err != nil {
				return nil, err
			}
			l.metrics.RecordHit()
			return r, nil
		}
		l.metrics.RecordMiss()

		r, err := NewFromFile(l, newFn, path)
		if err != nil {
			return nil, err
		}
		return l.cache.addLoaded(r)
	})
	if err != nil {
		return nil, err
	}
	return v.(Resource), nil
}

func checkKind(name string, kind reflect.Type, r Resource) error {
	if reflect.TypeOf(r) == kind {
		return nil
	}
	return &TypeMismatchError{
		Name:     name,
		Expected: kind.String(),
		Actual:   fmt.Sprintf("%T", r),
	}
}

// NewFromFile constructs a resource and loads it from path, bypassing the
// cache. The instance can later be cached with Cache.Add.
func NewFromFile[T Resource](l *Loader, newFn Factory[T], path string) (T, error) {
	r := newFn()
	if err := l.LoadFromFile(r, path); err != nil {
		var zero T
		return zero, err
	}
	return r, nil
}

// ResourceFromFile returns the cached resource named after path, loading and
// caching it on a miss. A cached resource is never parsed again, even if the
// file changed since.
func ResourceFromFile[T Resource](l *Loader, newFn Factory[T], path string) (T, error) {
	var zero T
	name := NameFromPath(path)
	r, err := l.resourceFromFile(name, path, func() Resource { return newFn() })
	if err != nil {
		return zero, err
	}
	t, ok := r.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name:     name,
			Expected: fmt.Sprintf("%T", zero),
			Actual:   fmt.Sprintf("%T", r),
		}
	}
	return t, nil
}

// As converts the result of Open to a concrete kind.
func As[T Resource](r Resource, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := r.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name:     r.Name(),
			Expected: fmt.Sprintf("%T", zero),
			Actual:   fmt.Sprintf("%T", r),
		}
	}
	return t, nil
}

package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/rezcache/engine/containers"
	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
)

const defaultStaleCapacity = 64

// StaleResource records a cached resource whose backing file changed on disk.
type StaleResource struct {
	Name string
	Path string
	Op   fsnotify.Op
	At   time.Time
}

// Watcher observes the resource root and reports cached resources whose files
// changed. Cached instances are never evicted or reloaded: callers decide what
// to do with the reports.
type Watcher struct {
	root   string
	cache  *resources.Cache
	events *core.Events

	mutex    sync.Mutex
	stale    *containers.RingQueue[StaleResource]
	fsnotify *fsnotify.Watcher
	isClosed bool
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher(root string, cache *resources.Cache, events *core.Events, capacity int) (*Watcher, error) {
	if cache == nil {
		return nil, errors.New("watcher requires a cache")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if capacity <= 0 {
		capacity = defaultStaleCapacity
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     abs,
		cache:    cache,
		events:   events,
		stale:    containers.NewRingQueue[StaleResource](capacity),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

// Start watches the root directory and all of its sub-directories.
func (w *Watcher) Start() error {
	if err := w.watchRecursive(w.root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.start()
	core.LogInfo("Watching resource root '%s'.", w.root)
	return nil
}

// Stale returns and clears the resources reported since the last call,
// oldest first. When more changes arrive than the queue holds, the oldest
// reports are dropped.
func (w *Watcher) Stale() []StaleResource {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.stale.Drain()
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	w.wg.Wait()
	return w.fsnotify.Close()
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := w.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.handleFileEvent(e)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("%s", err)

		case <-w.done:
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		return nil
	})
}

func (w *Watcher) handleFileEvent(e fsnotify.Event) {
	name := resources.NameFromPath(e.Name)
	r, ok := w.cache.Get(name)
	if !ok {
		return
	}
	// same name loaded from a different directory
	if dir := r.Directory(); dir != "" && dir != filepath.Dir(e.Name) {
		return
	}

	w.mutex.Lock()
	if w.stale.Push(StaleResource{Name: name, Path: e.Name, Op: e.Op, At: time.Now()}) {
		core.LogDebug("stale queue full, dropped the oldest report")
	}
	w.mutex.Unlock()

	core.LogInfo("Resource '%s' changed on disk (%s).", name, e.Op.String())
	w.events.Fire(core.EVENT_CODE_RESOURCE_FILE_CHANGED, w, core.EventContext{
		Name:     name,
		Path:     e.Name,
		Resource: r,
	})
}

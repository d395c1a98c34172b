package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/rezcache/engine/assets"
	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
	"github.com/spaghettifunk/rezcache/engine/resources/loaders"
)

/** @brief The configuration for the resource system */
type ResourceSystemConfig struct {
	/** @brief The base path relative file names are resolved against. */
	AssetBasePath string
	/** @brief Number of workers used to preload resources. */
	Workers int
	/** @brief Capacity of the preload job queue. */
	QueueSize int
	/** @brief Watch the base path and report changed resources. */
	Watch bool
	/** @brief Number of change reports kept by the watcher. */
	StaleCapacity int
}

// ResourceSystem owns the resource cache and everything that feeds it.
type ResourceSystem struct {
	Config ResourceSystemConfig

	events  *core.Events
	metrics *core.Metrics
	loader  *resources.Loader
	jobs    *JobSystem
	watcher *assets.Watcher
}

var onceResourceSystemState sync.Once
var rsState *ResourceSystem

func NewResourceSystem(config ResourceSystemConfig) (*ResourceSystem, error) {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	rs := &ResourceSystem{
		Config:  config,
		events:  core.NewEvents(),
		metrics: core.NewMetrics(),
	}
	rs.loader = resources.NewLoader(
		resources.WithRoot(config.AssetBasePath),
		resources.WithEvents(rs.events),
		resources.WithMetrics(rs.metrics),
	)
	if err := loaders.RegisterDefaults(rs.loader); err != nil {
		return nil, err
	}

	jobs, err := NewJobSystem(config.Workers, config.QueueSize)
	if err != nil {
		return nil, err
	}
	rs.jobs = jobs

	if config.Watch {
		w, err := assets.NewWatcher(rs.loader.Resolver().Root, rs.loader.Cache(), rs.events, config.StaleCapacity)
		if err != nil {
			_ = jobs.Shutdown()
			return nil, err
		}
		if err := w.Start(); err != nil {
			_ = w.Close()
			_ = jobs.Shutdown()
			return nil, err
		}
		rs.watcher = w
	}

	core.LogInfo("Resource system initialized with base path '%s'.", config.AssetBasePath)
	return rs, nil
}

// InitializeResourceSystem creates the process-wide resource system. Only the
// first call creates it; later calls return the existing instance.
func InitializeResourceSystem(config ResourceSystemConfig) (*ResourceSystem, error) {
	var err error
	onceResourceSystemState.Do(func() {
		rsState, err = NewResourceSystem(config)
	})
	if err != nil {
		return nil, err
	}
	if rsState == nil {
		return nil, fmt.Errorf("resource system failed to initialize")
	}
	return rsState, nil
}

// GetResourceSystem returns the process-wide resource system, or nil before
// InitializeResourceSystem succeeded.
func GetResourceSystem() *ResourceSystem {
	return rsState
}

func (rs *ResourceSystem) Loader() *resources.Loader {
	return rs.loader
}

func (rs *ResourceSystem) Cache() *resources.Cache {
	return rs.loader.Cache()
}

func (rs *ResourceSystem) Events() *core.Events {
	return rs.events
}

func (rs *ResourceSystem) Metrics() *core.Metrics {
	return rs.metrics
}

// Watcher is nil unless the system was configured to watch.
func (rs *ResourceSystem) Watcher() *assets.Watcher {
	return rs.watcher
}

// Load returns the cached resource for the file, loading it on a miss.
func (rs *ResourceSystem) Load(path string) (resources.Resource, error) {
	return rs.loader.Open(path)
}

// Unload evicts the named resource from the cache.
func (rs *ResourceSystem) Unload(name string) bool {
	_, ok := rs.loader.Cache().RemoveNamed(name)
	return ok
}

// Preload loads the given files on the job system and waits for all of them.
// Every failure is reported in the returned error.
func (rs *ResourceSystem) Preload(paths []string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, path := range paths {
		path := path
		wg.Add(1)
		err := rs.jobs.Submit(JobTask{
			Name: "preload " + path,
			Run: func() error {
				_, err := rs.loader.Open(path)
				return err
			},
			OnFailure: func(err error) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			},
			OnCompletionCallback: wg.Done,
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	wg.Wait()

	if len(errs) == 0 {
		core.LogInfo("Preloaded %d resources.", len(paths))
	}
	return errors.Join(errs...)
}

func (rs *ResourceSystem) Shutdown() error {
	var errs []error
	if rs.watcher != nil {
		errs = append(errs, rs.watcher.Close())
	}
	errs = append(errs, rs.jobs.Shutdown())
	rs.loader.Cache().RemoveAll()
	core.LogInfo("Resource system shut down.")
	return errors.Join(errs...)
}

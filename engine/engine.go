package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/inspect"
	"github.com/spaghettifunk/rezcache/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine has shut down
	EngineStageShutdown
)

// staleInterval is how often change reports from the watcher are logged while running.
const staleInterval = time.Second

type Engine struct {
	currentStage   Stage
	config         *ApplicationConfig
	resourceSystem *systems.ResourceSystem
	clock          *core.Clock
}

func New(config *ApplicationConfig) (*Engine, error) {
	if config == nil {
		config = DefaultApplicationConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		clock:        core.NewClock(),
	}, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Resources() *systems.ResourceSystem {
	return e.resourceSystem
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	e.clock.Start()

	if err := core.LogSetLevel(e.config.Log.Level); err != nil {
		return err
	}

	rs, err := systems.NewResourceSystem(systems.ResourceSystemConfig{
		AssetBasePath: e.config.Resources.Root,
		Workers:       e.config.Jobs.Workers,
		QueueSize:     e.config.Jobs.Queue,
		Watch:         e.config.Watch.Enabled,
		StaleCapacity: e.config.Watch.Capacity,
	})
	if err != nil {
		return err
	}
	e.resourceSystem = rs

	if len(e.config.Resources.Preload) > 0 {
		if err := rs.Preload(e.config.Resources.Preload); err != nil {
			core.LogError("Preloading failed: %s", err)
			return err
		}
	}

	e.clock.Update()
	core.LogInfo("%s initialized in %s.", e.config.Name, e.clock.Elapsed())
	e.currentStage = EngineStageInitialized
	return nil
}

// Run serves the inspector, if configured, and reports changed resources
// until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning

	errCh := make(chan error, 1)
	if addr := e.config.Inspect.Addr; addr != "" {
		srv := inspect.NewServer(e.resourceSystem.Cache(),
			inspect.WithMetrics(e.resourceSystem.Metrics()),
			inspect.WithWatcher(e.resourceSystem.Watcher()),
		)
		go func() {
			errCh <- srv.ListenAndServe(ctx, addr)
		}()
	}

	ticker := time.NewTicker(staleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err != nil {
				core.LogError("Inspector stopped: %s", err)
				return err
			}
		case <-ticker.C:
			e.reportStale()
		}
	}
}

func (e *Engine) reportStale() {
	w := e.resourceSystem.Watcher()
	if w == nil {
		return
	}
	for _, s := range w.Stale() {
		core.LogWarn("Cached resource '%s' is stale, its file changed at %s.", s.Name, s.At.Format(time.RFC3339))
	}
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	if e.resourceSystem != nil {
		snapshot := e.resourceSystem.Metrics().Snapshot()
		core.LogInfo("Loads: %d, failures: %d, cache hits: %d, misses: %d, avg load %.3fms.",
			snapshot.Loads, snapshot.Failures, snapshot.CacheHits, snapshot.CacheMiss, snapshot.LoadMSAvg)
		if err := e.resourceSystem.Shutdown(); err != nil {
			return err
		}
	}
	e.clock.Stop()
	core.LogInfo("%s shut down after %s.", e.config.Name, e.clock.Elapsed())
	e.currentStage = EngineStageShutdown
	return nil
}

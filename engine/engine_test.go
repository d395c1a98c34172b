package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineLifecycle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "stone.amt"), []byte("name = stone\n"), 0o644))

	cfg := DefaultApplicationConfig()
	cfg.Resources.Root = root
	cfg.Resources.Preload = []string{"stone.amt"}
	cfg.Watch.Enabled = true

	e, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.Equal(t, []string{"stone"}, e.Resources().Cache().Names())
	assert.Error(t, e.Initialize())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))

	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShutdown, e.Stage())
	assert.Zero(t, e.Resources().Cache().Len())
	require.NoError(t, e.Shutdown())
}

func TestEnginePreloadFailure(t *testing.T) {
	cfg := DefaultApplicationConfig()
	cfg.Resources.Root = t.TempDir()
	cfg.Resources.Preload = []string{"missing.amt"}

	e, err := New(cfg)
	require.NoError(t, err)
	assert.Error(t, e.Initialize())
	require.NoError(t, e.Shutdown())
}

func TestEngineRunRequiresInitialize(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	assert.Error(t, e.Run(context.Background()))
}

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicationConfig(t *testing.T) {
	cfg, err := ParseApplicationConfig([]byte(`
name = "harbour"

[resources]
root = "/srv/assets"
preload = ["materials/stone.amt", "levels/harbour.yaml"]

[log]
level = "debug"

[watch]
enabled = true

[inspect]
addr = "127.0.0.1:7070"
`))
	require.NoError(t, err)
	assert.Equal(t, "harbour", cfg.Name)
	assert.Equal(t, "/srv/assets", cfg.Resources.Root)
	assert.Equal(t, []string{"materials/stone.amt", "levels/harbour.yaml"}, cfg.Resources.Preload)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 64, cfg.Watch.Capacity)
	assert.Equal(t, "127.0.0.1:7070", cfg.Inspect.Addr)
	assert.Equal(t, 4, cfg.Jobs.Workers)
	assert.Equal(t, 16, cfg.Jobs.Queue)
}

func TestParseApplicationConfigDefaults(t *testing.T) {
	cfg, err := ParseApplicationConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultApplicationConfig(), cfg)
}

func TestParseApplicationConfigErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":    "[resources]\nrot = \"x\"\n",
		"bad syntax":     "[resources\n",
		"no workers":     "[jobs]\nworkers = 0\n",
		"negative queue": "[jobs]\nqueue = -1\n",
		"wrong type":     "[watch]\nenabled = \"yes\"\n",
	} {
		_, err := ParseApplicationConfig([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadApplicationConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rezcache.toml")
	require.NoError(t, os.WriteFile(path, []byte("[jobs]\nworkers = 2\n"), 0o644))

	cfg, err := LoadApplicationConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Jobs.Workers)

	_, err = LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

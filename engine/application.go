package engine

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

type ResourcesConfig struct {
	// Directory relative resource paths are resolved against.
	Root string `toml:"root"`
	// Files loaded into the cache during initialization.
	Preload []string `toml:"preload"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type WatchConfig struct {
	Enabled bool `toml:"enabled"`
	// Number of change reports kept until they are read.
	Capacity int `toml:"capacity"`
}

type InspectConfig struct {
	// Listen address of the inspector. Empty disables it.
	Addr string `toml:"addr"`
}

type JobsConfig struct {
	Workers int `toml:"workers"`
	Queue   int `toml:"queue"`
}

type ApplicationConfig struct {
	// The application name used in log lines.
	Name      string          `toml:"name"`
	Resources ResourcesConfig `toml:"resources"`
	Log       LogConfig       `toml:"log"`
	Watch     WatchConfig     `toml:"watch"`
	Inspect   InspectConfig   `toml:"inspect"`
	Jobs      JobsConfig      `toml:"jobs"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:      "rezcache",
		Resources: ResourcesConfig{Root: "assets"},
		Log:       LogConfig{Level: "info"},
		Watch:     WatchConfig{Capacity: 64},
		Jobs:      JobsConfig{Workers: 4, Queue: 16},
	}
}

// ParseApplicationConfig decodes a TOML document on top of the defaults.
// Unknown keys are rejected.
func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration %q", path)
	}
	cfg, err := ParseApplicationConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "configuration %q", path)
	}
	return cfg, nil
}

func (c *ApplicationConfig) validate() error {
	if c.Jobs.Workers < 1 {
		return errors.Errorf("jobs.workers must be at least 1, got %d", c.Jobs.Workers)
	}
	if c.Jobs.Queue < 0 {
		return errors.Errorf("jobs.queue must not be negative, got %d", c.Jobs.Queue)
	}
	if c.Watch.Capacity < 1 {
		return errors.Errorf("watch.capacity must be at least 1, got %d", c.Watch.Capacity)
	}
	return nil
}

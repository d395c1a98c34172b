package loaders

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
)

// SceneEntry is one resource referenced by a scene manifest.
type SceneEntry struct {
	File string `yaml:"file"`
	// Optional entries that fail to load are skipped instead of failing the scene.
	Optional bool `yaml:"optional,omitempty"`
}

type sceneManifest struct {
	Title     string       `yaml:"title,omitempty"`
	Resources []SceneEntry `yaml:"resources"`
}

// Scene is a YAML manifest grouping other resources:
//
//	title: Harbour
//	resources:
//	  - file: models/ship.gltf
//	  - file: textures/water.png
//	  - file: fonts/hud.fnt
//	    optional: true
//
// Entries are resolved against the resource directory and loaded through the
// loader's cache, so scenes referencing the same file share one instance.
// When a required entry fails, the children this load added to the cache are
// evicted again; children that were cached before are left alone.
type Scene struct {
	resources.Base

	Title    string
	Entries  []SceneEntry
	Children []resources.Resource

	loader *resources.Loader
}

func NewScene(l *resources.Loader) *Scene {
	return &Scene{loader: l}
}

func (s *Scene) ProcessFile(absPath string) error {
	if s.loader == nil {
		return errors.New("scene has no loader to resolve its resources")
	}
	payload, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	var manifest sceneManifest
	if err := yaml.Unmarshal(payload, &manifest); err != nil {
		return errors.Wrapf(err, "failed to parse scene %q", absPath)
	}
	if err := checkSceneCycle(absPath, s.Name(), s.Directory(), &manifest, map[string]bool{}); err != nil {
		return err
	}

	cache := s.loader.Cache()
	children := make([]resources.Resource, 0, len(manifest.Resources))
	var inserted []resources.Resource
	for _, entry := range manifest.Resources {
		if entry.File == "" {
			evict(cache, inserted)
			return errors.Errorf("scene %q has an entry without file", absPath)
		}
		path := resolveEntry(s.Directory(), entry.File)
		_, wasCached := cache.Get(resources.NameFromPath(path))
		child, err := s.loader.Open(path)
		if err != nil {
			if entry.Optional {
				core.LogWarn("Optional resource '%s' of scene '%s' could not be loaded: %s", entry.File, s.Name(), err)
				continue
			}
			evict(cache, inserted)
			return errors.Wrapf(err, "scene %q", s.Name())
		}
		if !wasCached {
			inserted = append(inserted, child)
		}
		children = append(children, child)
	}

	s.Title = manifest.Title
	s.Entries = manifest.Resources
	s.Children = children
	return nil
}

// evict removes the children a failed scene load placed in the cache.
func evict(cache *resources.Cache, inserted []resources.Resource) {
	for _, r := range inserted {
		cache.Remove(r)
	}
}

func isSceneFile(path string) bool {
	ext := resources.ExtensionOf(path)
	return ext == ".yaml" || ext == ".yml"
}

func resolveEntry(dir, file string) string {
	if filepath.IsAbs(file) {
		return filepath.Clean(file)
	}
	return filepath.Join(dir, filepath.FromSlash(file))
}

// checkSceneCycle walks the scene manifests reachable from a scene and fails
// if an entry is named like a scene that is still being expanded. Such an
// entry maps to the cache slot of its enclosing scene, which is still loading.
func checkSceneCycle(absPath, name, dir string, manifest *sceneManifest, visiting map[string]bool) error {
	visiting[name] = true
	defer delete(visiting, name)

	for _, entry := range manifest.Resources {
		path := resolveEntry(dir, entry.File)
		childName := resources.NameFromPath(path)
		if visiting[childName] {
			return errors.Errorf("scene %q: entry %q has the same name as an enclosing scene", absPath, entry.File)
		}
		if !isSceneFile(path) {
			continue
		}
		payload, err := os.ReadFile(path)
		if err != nil {
			// reported when the entry is loaded
			continue
		}
		var child sceneManifest
		if err := yaml.Unmarshal(payload, &child); err != nil {
			continue
		}
		if err := checkSceneCycle(path, childName, filepath.Dir(path), &child, visiting); err != nil {
			return err
		}
	}
	return nil
}

// Child returns the loaded child resource with the given name.
func (s *Scene) Child(name string) (resources.Resource, bool) {
	for _, c := range s.Children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

func (s *Scene) SaveToFile(path string) error {
	payload, err := yaml.Marshal(&sceneManifest{
		Title:     s.Title,
		Resources: s.Entries,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

package loaders

import (
	"github.com/spaghettifunk/rezcache/engine/resources"
)

// RegisterDefaults registers every built-in resource kind on the loader.
func RegisterDefaults(l *resources.Loader) error {
	kinds := []struct {
		newFn resources.Factory[resources.Resource]
		exts  []string
	}{
		{func() resources.Resource { return NewMaterial() }, []string{".amt"}},
		{func() resources.Resource { return NewTexture() }, []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}},
		{func() resources.Resource { return NewShader() }, []string{".spv"}},
		{func() resources.Resource { return NewBitmapFont() }, []string{".fnt"}},
		{func() resources.Resource { return NewSystemFont() }, []string{".fontcfg"}},
		{func() resources.Resource { return NewModel() }, []string{".gltf", ".glb"}},
		{func() resources.Resource { return NewMesh() }, []string{".obj"}},
		{func() resources.Resource { return NewScene(l) }, []string{".yaml", ".yml"}},
	}
	for _, k := range kinds {
		if err := l.RegisterKind(k.newFn, k.exts...); err != nil {
			return err
		}
	}
	return nil
}

package loaders

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rezcache/engine/resources"
)

func writeHarbour(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "levels", "models", "hero.obj"), heroOBJ)
	writePNG(t, filepath.Join(root, "levels", "textures", "water.png"), 2, 2, 0xff)
	writeFile(t, filepath.Join(root, "levels", "harbour.yaml"), `title: Harbour
resources:
  - file: models/hero.obj
  - file: textures/water.png
  - file: fonts/missing.fnt
    optional: true
`)
}

func TestSceneLoadsChildrenThroughCache(t *testing.T) {
	root := t.TempDir()
	writeHarbour(t, root)
	l := newTestLoader(t, root)

	s, err := resources.As[*Scene](l.Open("levels/harbour.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Harbour", s.Title)
	assert.Len(t, s.Entries, 3)
	require.Len(t, s.Children, 2)

	hero, ok := s.Child("hero")
	require.True(t, ok)
	_, ok = s.Child("missing")
	assert.False(t, ok)

	cached, err := resources.ResourceFromFile(l, NewMesh, "levels/models/hero.obj")
	require.NoError(t, err)
	assert.True(t, hero == resources.Resource(cached), "scene children are shared with the cache")
	assert.Equal(t, []string{"harbour", "hero", "water"}, l.Cache().Names())
}

func TestSceneRequiredChildFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "models", "hero.obj"), heroOBJ)
	writePNG(t, filepath.Join(root, "textures", "water.png"), 2, 2, 0xff)
	writeFile(t, filepath.Join(root, "broken.yaml"), `resources:
  - file: textures/water.png
  - file: models/hero.obj
  - file: nowhere.obj
`)
	l := newTestLoader(t, root)
	water, err := l.Open("textures/water.png")
	require.NoError(t, err)

	_, err = l.Open("broken.yaml")
	require.Error(t, err)
	_, ok := l.Cache().Get("broken")
	assert.False(t, ok)
	_, ok = l.Cache().Get("hero")
	assert.False(t, ok, "children added by the failed load are evicted")
	cached, ok := l.Cache().Get("water")
	require.True(t, ok)
	assert.True(t, cached == water)
}

func TestScenesReferencingEachOtherByName(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"pad1", "pad2", "pad3", "pad4", "a", "b"} {
		writeFile(t, filepath.Join(root, name+".obj"), heroOBJ)
	}
	writeFile(t, filepath.Join(root, "a.yaml"), "resources:\n  - file: pad1.obj\n  - file: pad2.obj\n  - file: b.obj\n")
	writeFile(t, filepath.Join(root, "b.yaml"), "resources:\n  - file: pad3.obj\n  - file: pad4.obj\n  - file: a.obj\n")

	for i := 0; i < 20; i++ {
		l := newTestLoader(t, root)
		start := make(chan struct{})
		errs := make(chan error, 2)
		for _, name := range []string{"a.yaml", "b.yaml"} {
			go func(name string) {
				<-start
				_, err := l.Open(name)
				errs <- err
			}(name)
		}
		close(start)

		failed := 0
		for j := 0; j < 2; j++ {
			select {
			case err := <-errs:
				if err != nil {
					var mismatch *resources.TypeMismatchError
					assert.ErrorAs(t, err, &mismatch)
					failed++
				}
			case <-time.After(2 * time.Second):
				t.Fatal("scene loads are waiting on each other")
			}
		}
		assert.Positive(t, failed)
	}
}

func TestSceneRejectsCycles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yaml"), "resources:\n  - file: b.yaml\n")
	writeFile(t, filepath.Join(root, "b.yaml"), "resources:\n  - file: a.yaml\n")
	writeFile(t, filepath.Join(root, "self.yaml"), "resources:\n  - file: self.yaml\n")
	writeFile(t, filepath.Join(root, "hero.yaml"), "resources:\n  - file: models/hero.obj\n")
	writeFile(t, filepath.Join(root, "models", "hero.obj"), heroOBJ)
	l := newTestLoader(t, root)

	for _, name := range []string{"a.yaml", "self.yaml", "hero.yaml"} {
		_, err := l.Open(name)
		assert.Error(t, err, name)
	}
	assert.Equal(t, 0, l.Cache().Len())
}

func TestSceneWithoutLoader(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, filepath.Join(root, "lonely.yaml"), "resources: []\n")
	l := newTestLoader(t, root)

	assert.Error(t, l.LoadFromFile(&Scene{}, path))
}

func TestSceneSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeHarbour(t, root)
	l := newTestLoader(t, root)

	s, err := resources.As[*Scene](l.Open("levels/harbour.yaml"))
	require.NoError(t, err)
	require.NoError(t, l.SaveToFile(s, "levels/harbour_copy.yml"))

	c, err := resources.As[*Scene](l.OpenUncached("levels/harbour_copy.yml"))
	require.NoError(t, err)
	assert.Equal(t, s.Title, c.Title)
	assert.Equal(t, s.Entries, c.Entries)
	require.Len(t, c.Children, 2)
	assert.True(t, c.Children[0] == s.Children[0])
}

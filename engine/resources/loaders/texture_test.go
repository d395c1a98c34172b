package loaders

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
)

func TestTextureLoad(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "sky.png"), 4, 3, 0xff)
	l := newTestLoader(t, root)

	tex, err := resources.As[*Texture](l.Open("sky.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", tex.Format)
	assert.Equal(t, uint32(4), tex.Width)
	assert.Equal(t, uint32(3), tex.Height)
	assert.Equal(t, uint8(4), tex.ChannelCount)
	assert.False(t, tex.HasTransparency)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, tex.Pixels.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, tex.Pixels.RGBAAt(0, 2))
}

func TestTextureFlipYAndTransparency(t *testing.T) {
	root := t.TempDir()
	path := writePNG(t, filepath.Join(root, "glass.png"), 2, 2, 0x80)
	l := newTestLoader(t, root)

	tex := resources.NewUnloaded(NewTexture)
	tex.FlipY = true
	require.NoError(t, l.LoadFromFile(tex, path))
	assert.True(t, tex.HasTransparency)
	// the red row moved to the bottom
	assert.Equal(t, uint8(0), tex.Pixels.RGBAAt(0, 0).R)
	assert.NotZero(t, tex.Pixels.RGBAAt(0, 1).R)
}

func TestTextureSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "sky.png"), 4, 3, 0xff)
	l := newTestLoader(t, root)

	tex, err := resources.NewFromFile(l, NewTexture, "sky.png")
	require.NoError(t, err)

	for _, name := range []string{"copy.bmp", "copy.tiff", "copy2.png"} {
		require.NoError(t, l.SaveToFile(tex, name), name)
		c, err := resources.NewFromFile(l, NewTexture, name)
		require.NoError(t, err, name)
		assert.Equal(t, tex.Width, c.Width, name)
		assert.Equal(t, tex.Height, c.Height, name)
		assert.Equal(t, tex.Pixels.RGBAAt(0, 0), c.Pixels.RGBAAt(0, 0), name)
	}

	assert.ErrorIs(t, l.SaveToFile(tex, "copy.webp"), core.ErrUnsupported)
	assert.Error(t, NewTexture().SaveToFile(filepath.Join(root, "empty.png")))
}

func TestTextureDecodeFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.png"), "not an image")
	l := newTestLoader(t, root)

	_, err := l.Open("broken.png")
	require.Error(t, err)
	_, ok := l.Cache().Get("broken")
	assert.False(t, ok)
}

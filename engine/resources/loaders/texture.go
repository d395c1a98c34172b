package loaders

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
)

// Texture is a decoded image, stored as 8-bit RGBA.
type Texture struct {
	resources.Base

	// FlipY flips the image on the y-axis when loaded. Set it before loading.
	FlipY bool

	// The format the file was decoded from ("png", "jpeg", "bmp", ...).
	Format          string
	Width           uint32
	Height          uint32
	ChannelCount    uint8
	HasTransparency bool
	Pixels          *image.RGBA
}

func NewTexture() *Texture {
	return &Texture{}
}

func (t *Texture) ProcessFile(absPath string) error {
	file, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return errors.Wrapf(err, "failed to decode texture %s", absPath)
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	if t.FlipY {
		flipRows(rgba)
	}

	t.Format = format
	t.Width = uint32(b.Dx())
	t.Height = uint32(b.Dy())
	t.ChannelCount = 4
	t.HasTransparency = hasTransparency(rgba)
	t.Pixels = rgba
	return nil
}

// SaveToFile encodes the texture using the format implied by the extension
// of path: .png, .jpg/.jpeg, .bmp or .tif/.tiff.
func (t *Texture) SaveToFile(path string) error {
	if t.Pixels == nil {
		return errors.Errorf("texture '%s' has no pixel data", t.Name())
	}
	img := t.Pixels
	if t.FlipY {
		img = cloneRGBA(t.Pixels)
		flipRows(img)
	}

	var encode func(f *os.File) error
	switch resources.ExtensionOf(path) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: 90}) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error { return tiff.Encode(f, img, nil) }
	default:
		return errors.Wrapf(core.ErrUnsupported, "cannot encode texture as %q", resources.ExtensionOf(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	stride := img.Stride
	tmp := make([]uint8, stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(h-1-y)*stride : (h-y)*stride]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}

func hasTransparency(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			return true
		}
	}
	return false
}

package loaders

import (
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/fzipp/bmfont"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/rezcache/engine/resources"
)

type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

type BitmapFontPage struct {
	ID   int8
	File string
	// Path is File resolved against the resource directory.
	Path  string
	Sheet image.Image
}

// BitmapFont is an AngelCode BMFont descriptor (.fnt) with its glyph atlas pages.
type BitmapFont struct {
	resources.Base

	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []FontGlyph
	Kernings   []FontKerning
	Pages      []BitmapFontPage
}

func NewBitmapFont() *BitmapFont {
	return &BitmapFont{}
}

// ProcessFile reads the descriptor and decodes its page sheets from the
// resource directory, which need not be the descriptor's own.
func (bf *BitmapFont) ProcessFile(absPath string) error {
	file, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer file.Close()

	dir := bf.Directory()
	font, err := bmfont.Read(file, func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to read bitmap font %q", absPath)
	}
	desc := font.Descriptor

	glyphs := make([]FontGlyph, 0, len(desc.Chars))
	for _, g := range desc.Chars {
		glyphs = append(glyphs, FontGlyph{
			Codepoint: rune(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}

	kernings := make([]FontKerning, 0, len(desc.Kerning))
	for p, k := range desc.Kerning {
		kernings = append(kernings, FontKerning{
			Codepoint0: rune(p.First),
			Codepoint1: rune(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	pages := make([]BitmapFontPage, 0, len(desc.Pages))
	for key, p := range desc.Pages {
		pages = append(pages, BitmapFontPage{
			ID:    int8(p.ID),
			File:  p.File,
			Path:  filepath.Join(dir, filepath.FromSlash(p.File)),
			Sheet: font.PageSheets[key],
		})
	}
	slices.SortFunc(pages, func(a, b BitmapFontPage) int {
		return int(a.ID) - int(b.ID)
	})

	bf.Face = desc.Info.Face
	bf.Size = uint32(desc.Info.Size)
	bf.LineHeight = int32(desc.Common.LineHeight)
	bf.Baseline = int32(desc.Common.Base)
	bf.AtlasSizeX = int32(desc.Common.ScaleW)
	bf.AtlasSizeY = int32(desc.Common.ScaleH)
	bf.Glyphs = glyphs
	bf.Kernings = kernings
	bf.Pages = pages
	return nil
}

// Glyph returns the glyph for a codepoint.
func (bf *BitmapFont) Glyph(r rune) (FontGlyph, bool) {
	for _, g := range bf.Glyphs {
		if g.Codepoint == r {
			return g, true
		}
	}
	return FontGlyph{}, false
}

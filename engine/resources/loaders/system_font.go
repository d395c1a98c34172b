package loaders

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/rezcache/engine/resources"
)

type SystemFontFace struct {
	Name string
}

// SystemFont is a TrueType/OpenType font described by a .fontcfg file:
//
//	file=NotoSansCJK-VF.ttc
//	face=Noto Sans CJK JP
//	face=Noto Sans CJK KR
//
// The font file is resolved against the resource directory.
type SystemFont struct {
	resources.Base

	FontPath   string
	Fonts      []SystemFontFace
	FontBinary *opentype.Collection
	BinarySize uint64
}

func NewSystemFont() *SystemFont {
	return &SystemFont{}
}

func (sf *SystemFont) ProcessFile(absPath string) error {
	file, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var (
		fontPath string
		faces    []SystemFontFace
	)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse the file and face keys
		if strings.HasPrefix(line, "file=") {
			fontPath = strings.TrimPrefix(line, "file=")
			if !filepath.IsAbs(fontPath) {
				fontPath = filepath.Join(sf.Directory(), fontPath)
			}
		} else if strings.HasPrefix(line, "face=") {
			faces = append(faces, SystemFontFace{
				Name: strings.TrimPrefix(line, "face="),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if fontPath == "" {
		return errors.Errorf("system font config %s has no file= entry", absPath)
	}

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return err
	}
	collection, err := opentype.ParseCollection(fontBytes)
	if err != nil {
		return err
	}

	sf.FontPath = fontPath
	sf.Fonts = faces
	sf.FontBinary = collection
	sf.BinarySize = uint64(len(fontBytes))
	return nil
}

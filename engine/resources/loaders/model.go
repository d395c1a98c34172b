package loaders

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
)

// Model is a glTF 2.0 asset (.gltf or .glb). External buffers are read by the
// glTF decoder relative to the file; image URIs are resolved against the
// resource directory so textures can live elsewhere.
type Model struct {
	resources.Base

	Document     *gltf.Document
	MeshNames    []string
	NodeCount    int
	TexturePaths []string
}

func NewModel() *Model {
	return &Model{}
}

func (m *Model) ProcessFile(absPath string) error {
	doc, err := gltf.Open(absPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open gltf %q", absPath)
	}

	meshNames := make([]string, 0, len(doc.Meshes))
	for i, mesh := range doc.Meshes {
		name := mesh.Name
		if name == "" {
			name = m.Name() + "_mesh_" + strconv.Itoa(i)
		}
		meshNames = append(meshNames, name)
	}

	var texturePaths []string
	for _, img := range doc.Images {
		if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
			continue
		}
		if filepath.IsAbs(img.URI) {
			texturePaths = append(texturePaths, img.URI)
			continue
		}
		texturePaths = append(texturePaths, filepath.Join(m.Directory(), filepath.FromSlash(img.URI)))
	}

	m.Document = doc
	m.MeshNames = meshNames
	m.NodeCount = len(doc.Nodes)
	m.TexturePaths = texturePaths
	return nil
}

// SaveToFile writes the document as JSON glTF or binary GLB, depending on the
// extension of path.
func (m *Model) SaveToFile(path string) error {
	if m.Document == nil {
		return errors.Errorf("model '%s' has no document", m.Name())
	}
	switch resources.ExtensionOf(path) {
	case ".gltf":
		return errors.Wrap(gltf.Save(m.Document, path), "failed to save gltf")
	case ".glb":
		return errors.Wrap(gltf.SaveBinary(m.Document, path), "failed to save glb")
	default:
		return errors.Wrapf(core.ErrUnsupported, "cannot save model as %q", resources.ExtensionOf(path))
	}
}

package resources

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/rezcache/engine/core"
)

// Resource is content loaded from a file: a model, a scene, a texture...
//
// Concrete kinds embed Base and override ProcessFile, the single primitive the
// Loader drives. Everything else (naming, directory inference, the loaded flag,
// caching) is handled by the Loader and the Cache on top of it.
type Resource interface {
	// ID is a process-unique identity, independent of the name.
	ID() uuid.UUID
	Name() string
	SetName(name string)
	// Directory is where auxiliary assets (textures, buffers, font pages) are
	// looked up. Defaults to the directory of the loaded file.
	Directory() string
	SetDirectory(dir string)
	// WasLoaded reports whether the resource has been successfully loaded.
	WasLoaded() bool

	// ProcessFile parses the file at the given absolute path into the resource.
	// Do not call it directly, use Loader.LoadFromFile.
	ProcessFile(absPath string) error
	// SaveToFile writes the resource content to the given path.
	SaveToFile(path string) error

	base() *Base
}

// Base is the abstract resource. It holds the state shared by every kind and
// fails both ProcessFile and SaveToFile with core.ErrUnsupported.
//
// The zero value is an unloaded resource.
type Base struct {
	idOnce    sync.Once
	id        uuid.UUID
	name      string
	directory string
	wasLoaded bool
}

var _ Resource = (*Base)(nil)

// New returns an unloaded abstract resource.
func New() *Base {
	return &Base{}
}

func (b *Base) ID() uuid.UUID {
	b.idOnce.Do(func() {
		b.id = uuid.New()
	})
	return b.id
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) SetName(name string) {
	b.name = name
}

func (b *Base) Directory() string {
	return b.directory
}

// SetDirectory must be called before the resource is loaded to have any effect
// on where auxiliary assets are resolved from.
func (b *Base) SetDirectory(dir string) {
	b.directory = dir
}

func (b *Base) WasLoaded() bool {
	return b.wasLoaded
}

func (b *Base) ProcessFile(absPath string) error {
	return core.ErrUnsupported
}

func (b *Base) SaveToFile(path string) error {
	return core.ErrUnsupported
}

func (b *Base) base() *Base {
	return b
}

// Factory constructs an unloaded resource of a concrete kind.
type Factory[T Resource] func() T

// NewUnloaded constructs a resource without loading anything, so it can be
// configured (typically SetDirectory) before Loader.LoadFromFile.
func NewUnloaded[T Resource](newFn Factory[T]) T {
	return newFn()
}

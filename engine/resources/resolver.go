package resources

import (
	"path/filepath"
)

// PathResolver turns the paths handed to the loader into absolute paths.
// Relative paths are taken relative to Root; when Root is empty they are
// taken relative to the working directory.
type PathResolver struct {
	Root string
}

func NewPathResolver(root string) *PathResolver {
	return &PathResolver{Root: root}
}

func (pr *PathResolver) Resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	if pr != nil && pr.Root != "" {
		path = filepath.Join(pr.Root, path)
	}
	return filepath.Abs(path)
}

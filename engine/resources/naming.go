package resources

import (
	"path/filepath"
	"strings"
)

// NameFromPath derives a resource name from a file path: the base name with
// its final extension removed. "models/hero.obj" becomes "hero".
func NameFromPath(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DirectoryFromPath returns the containing directory of a file path.
func DirectoryFromPath(path string) string {
	return filepath.Dir(path)
}

// ExtensionOf returns the lower-cased extension of a path, including the dot.
func ExtensionOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

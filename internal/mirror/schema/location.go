package schema

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrMalformedPath is returned when a path has no usable filename or folder.
var ErrMalformedPath = errors.New("malformed path")

// Location holds the names the store derives from a file path.
type Location struct {
	Filename string
	Folder   string
	// Parent is empty when the folder sits at the top of the tree.
	Parent string
}

// HasParent reports whether the folder has a parent folder.
func (l Location) HasParent() bool {
	return l.Parent != ""
}

// Locate derives filename, folder and parent folder names from path.
//
// root is the watched directory. A file directly inside root is given the
// root's own name as folder and no parent. An empty root, or a path outside
// of it, falls back to the plain path components.
func Locate(root, path string) (Location, error) {
	clean := filepath.Clean(path)
	filename := baseName(clean)
	if filename == "" {
		return Location{}, fmt.Errorf("%w: %q has no filename", ErrMalformedPath, path)
	}

	dir := filepath.Dir(clean)
	loc := Location{
		Filename: filename,
		Folder:   baseName(dir),
	}
	if loc.Folder == "" {
		return Location{}, fmt.Errorf("%w: %q has no containing folder", ErrMalformedPath, path)
	}

	if root != "" && filepath.Clean(root) == dir {
		return loc, nil
	}

	if grand := filepath.Dir(dir); grand != dir {
		loc.Parent = baseName(grand)
	}
	return loc, nil
}

// Filename returns the last component of path, or "" if there is none.
func Filename(path string) string {
	return baseName(filepath.Clean(path))
}

// baseName is filepath.Base without the "." and separator placeholders.
func baseName(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

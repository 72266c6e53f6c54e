package sync

import "path/filepath"

// IgnoreList holds glob patterns matched against base names.
type IgnoreList []string

// Match reports whether the last component of path matches any pattern.
// Malformed patterns never match.
func (l IgnoreList) Match(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range l {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Validate returns the first malformed pattern's error.
func (l IgnoreList) Validate() error {
	for _, pattern := range l {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return err
		}
	}
	return nil
}

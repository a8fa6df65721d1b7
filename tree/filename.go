package tree

import "path/filepath"

// NormalizeFilename turns an adapter's file reference into the form used as
// a decoration key: absolute when it can be resolved, slash separated. An
// empty name means the node has no source.
func NormalizeFilename(file string) string {
	if file == "" {
		return ""
	}
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	return filepath.ToSlash(filepath.Clean(file))
}

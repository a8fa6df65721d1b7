package filesystem

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultTestPatterns match the test files of the runners we know about.
var DefaultTestPatterns = []string{
	"**/*.{test,spec}.{js,jsx,ts,tsx}",
	"**/*_test.go",
	"**/test_*.py",
}

// MatchAny reports whether relPath (slash separated) matches one of patterns.
// Invalid patterns never match.
func MatchAny(patterns []string, relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// IsTestFile checks a file name against DefaultTestPatterns.
func IsTestFile(name string) bool {
	return MatchAny(DefaultTestPatterns, filepath.Base(name))
}

// IsConfigFile checks if a file is a configuration file that might affect tests.
func IsConfigFile(name string) bool {
	base := filepath.Base(name)
	return base == "package.json" ||
		base == "tsconfig.json" ||
		base == "go.mod" ||
		base == ".testexplorer.toml" ||
		base == ".testexplorer.json" ||
		strings.HasPrefix(base, "vite.config.") ||
		strings.HasPrefix(base, "jest.config.") ||
		strings.HasPrefix(base, "babel.config.")
}

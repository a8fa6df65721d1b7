package analysis

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// DepKind tells how a file uses one of its imports.
type DepKind int

const (
	// DepRegular is a plain import.
	DepRegular DepKind = iota
	// DepMocked is an import the file also replaces with a jest mock.
	DepMocked
)

// Dependency is a resolved import.
type Dependency struct {
	Path string
	Kind DepKind
}

// ImportResult contains resolved and unresolved imports of one file.
type ImportResult struct {
	Resolved []Dependency
	// Unresolved holds absolute paths without extension of relative imports
	// that have no file yet.
	Unresolved []string
}

var (
	// import ... from '...', across newlines
	importFromRegex = regexp.MustCompile(`import[\s\S]*?from\s+['"]([^'"]+)['"]`)
	// import '...'
	importSideEffectRegex = regexp.MustCompile(`import\s+['"]([^'"]+)['"]`)
	// require('...') and import('...')
	requireRegex = regexp.MustCompile(`(?:require|import)\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	// jest.mock('...'), jest.doMock('...'), jest.setMock('...')
	jestMockRegex = regexp.MustCompile(`jest\.(?:mock|doMock|setMock)\s*\(\s*['"]([^'"]+)['"]`)

	// from .module import name / from . import name
	pyFromRegex = regexp.MustCompile(`(?m)^\s*from\s+(\.+)([\w.]*)\s+import\s+\(?([\w, ]+)`)
)

// language describes how imports of one family of source files are written
// and resolved.
type language struct {
	exts    []string
	suffix  []string
	extract func(text string) (imports []string, mocked map[string]bool)
}

var languages = []language{
	{
		exts:    []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
		suffix:  []string{"", ".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js", "/index.jsx"},
		extract: extractJS,
	},
	{
		exts:    []string{".py"},
		suffix:  []string{".py", "/__init__.py"},
		extract: extractPython,
	},
}

func languageOf(path string) (language, bool) {
	ext := filepath.Ext(path)
	for _, l := range languages {
		for _, e := range l.exts {
			if e == ext {
				return l, true
			}
		}
	}
	return language{}, false
}

// IsSourceFile reports whether imports of path can be analysed.
func IsSourceFile(path string) bool {
	_, ok := languageOf(path)
	return ok
}

// Extensions lists the analysable file extensions without the leading dot.
func Extensions() []string {
	var exts []string
	for _, l := range languages {
		for _, e := range l.exts {
			exts = append(exts, strings.TrimPrefix(e, "."))
		}
	}
	return exts
}

// Parser extracts and resolves relative imports.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseImports reads filePath and resolves its relative imports against the
// file system. Package imports are ignored.
func (p *Parser) ParseImports(filePath string) (*ImportResult, error) {
	lang, ok := languageOf(filePath)
	if !ok {
		return &ImportResult{}, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}

	imports, mocked := lang.extract(string(content))

	result := &ImportResult{}
	dir := filepath.Dir(filePath)
	seen := make(map[string]bool)
	for _, imp := range imports {
		if !strings.HasPrefix(imp, ".") || seen[imp] {
			continue
		}
		seen[imp] = true

		absPath := filepath.Join(dir, filepath.FromSlash(imp))
		found, ok := findFile(absPath, lang.suffix)
		if !ok {
			result.Unresolved = append(result.Unresolved, absPath)
			continue
		}

		kind := DepRegular
		if mocked[imp] {
			kind = DepMocked
		}
		result.Resolved = append(result.Resolved, Dependency{Path: found, Kind: kind})
	}
	return result, nil
}

func extractJS(text string) ([]string, map[string]bool) {
	var imports []string
	for _, re := range []*regexp.Regexp{importFromRegex, importSideEffectRegex, requireRegex} {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			imports = append(imports, match[1])
		}
	}

	mocked := make(map[string]bool)
	for _, match := range jestMockRegex.FindAllStringSubmatch(text, -1) {
		mocked[match[1]] = true
		imports = append(imports, match[1])
	}
	return imports, mocked
}

// extractPython turns relative imports into slash paths: "from ..pkg.mod
// import x" becomes "../pkg/mod" and "from . import x, y" becomes "./x", "./y".
func extractPython(text string) ([]string, map[string]bool) {
	var imports []string
	for _, match := range pyFromRegex.FindAllStringSubmatch(text, -1) {
		prefix := "./"
		if dots := len(match[1]); dots > 1 {
			prefix = strings.Repeat("../", dots-1)
		}

		if module := match[2]; module != "" {
			imports = append(imports, prefix+strings.ReplaceAll(module, ".", "/"))
			continue
		}
		for _, name := range strings.Split(match[3], ",") {
			if name = strings.TrimSpace(name); name != "" {
				imports = append(imports, prefix+name)
			}
		}
	}
	return imports, nil
}

// findFile tries the language suffixes on pathWithoutExt. Imports whose
// spelling differs from the file only in case still resolve, as they do on
// case-insensitive file systems.
func findFile(pathWithoutExt string, suffixes []string) (string, bool) {
	for _, suffix := range suffixes {
		fullPath := pathWithoutExt + suffix
		if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
			return onDisk(fullPath), true
		}
	}

	dir, base := filepath.Split(pathWithoutExt)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, suffix := range suffixes {
		if strings.Contains(suffix, "/") {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(entry.Name(), base+suffix) {
				return filepath.Join(dir, entry.Name()), true
			}
		}
	}
	return "", false
}

// onDisk returns the directory entry spelling of path.
func onDisk(path string) string {
	dir, base := filepath.Split(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return path
	}
	for _, entry := range entries {
		if entry.Name() == base {
			return path
		}
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), base) {
			return filepath.Join(dir, entry.Name())
		}
	}
	return path
}

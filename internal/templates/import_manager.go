package templates

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// ImportManager handles import generation and deduplication
type ImportManager struct {
	imports map[string]string // qualifier -> path
}

// NewImportManager creates a new import manager
func NewImportManager() *ImportManager {
	return &ImportManager{
		imports: make(map[string]string),
	}
}

// AddImport adds an import under the given qualifier; the first path registered wins
func (im *ImportManager) AddImport(qualifier, importPath string) {
	if qualifier == "" || importPath == "" {
		return
	}
	if _, exists := im.imports[qualifier]; !exists {
		im.imports[qualifier] = importPath
	}
}

// AddReferenced adds every import from table whose qualifier is referenced in source
func (im *ImportManager) AddReferenced(source string, table map[string]string) {
	for _, qualifier := range sortedKeys(table) {
		if referencesQualifier(source, qualifier) {
			im.AddImport(qualifier, table[qualifier])
		}
	}
}

// Has reports whether a qualifier is imported
func (im *ImportManager) Has(qualifier string) bool {
	_, ok := im.imports[qualifier]
	return ok
}

// GenerateImports generates the import section, sorted by path
func (im *ImportManager) GenerateImports() string {
	if len(im.imports) == 0 {
		return ""
	}

	lines := make([]string, 0, len(im.imports))
	for _, qualifier := range sortedKeys(im.imports) {
		p := im.imports[qualifier]
		if defaultQualifier(p) == qualifier {
			lines = append(lines, fmt.Sprintf("%q", p))
		} else {
			lines = append(lines, fmt.Sprintf("%s %q", qualifier, p))
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		return unaliased(lines[i]) < unaliased(lines[j])
	})

	if len(lines) == 1 {
		return fmt.Sprintf("import %s\n", lines[0])
	}

	var result strings.Builder
	result.WriteString("import (\n")
	for _, line := range lines {
		result.WriteString(fmt.Sprintf("\t%s\n", line))
	}
	result.WriteString(")\n")

	return result.String()
}

// defaultQualifier is the package name Go infers from an import path, ignoring major version suffixes
func defaultQualifier(importPath string) string {
	base := path.Base(importPath)
	if len(base) > 1 && base[0] == 'v' && strings.Trim(base[1:], "0123456789") == "" {
		base = path.Base(path.Dir(importPath))
	}
	return base
}

func unaliased(line string) string {
	if idx := strings.IndexByte(line, '"'); idx >= 0 {
		return line[idx:]
	}
	return line
}

func referencesQualifier(source, qualifier string) bool {
	re := regexp.MustCompile(`(^|[^A-Za-z0-9_.])` + regexp.QuoteMeta(qualifier) + `\.`)
	return re.MatchString(source)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

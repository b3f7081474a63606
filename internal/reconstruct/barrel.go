package reconstruct

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateBarrelIndexes emits a simple `export * from './module'` index for
// every directory in dirs that has source files but no index file of its
// own. Directories that already have an index, or that have no JS/TS files
// at all, are skipped. Callers pass the set of alias-target directories
// (from alias inference) that need to resolve to something importable.
func (p *Project) GenerateBarrelIndexes(dirs []string) []GeneratedFile {
	var out []GeneratedFile
	seen := make(map[string]bool)

	sorted := append([]string(nil), dirs...)
	sort.Strings(sorted)

	for _, d := range sorted {
		d = cleanPath(d)
		if seen[d] {
			continue
		}
		seen[d] = true

		if p.findIndexFile(d) != "" {
			continue
		}

		modules := p.barrelModules(d)
		if len(modules) == 0 {
			continue
		}

		var sb strings.Builder
		for _, m := range modules {
			fmt.Fprintf(&sb, "export * from './%s';\n", m)
		}

		out = append(out, GeneratedFile{Path: joinDir(d, "index.ts"), Content: sb.String()})
	}
	return out
}

// barrelModules returns the sorted, deduplicated module basenames of every
// JS/TS source file directly inside dir (not recursing into subdirectories).
func (p *Project) barrelModules(dir string) []string {
	seen := make(map[string]bool)
	var modules []string
	for _, fp := range p.filesIn(dir) {
		if !hasJSExt(fp) {
			continue
		}
		name := moduleBase(fp)
		if name == "index" || seen[name] {
			continue
		}
		seen[name] = true
		modules = append(modules, name)
	}
	sort.Strings(modules)
	return modules
}

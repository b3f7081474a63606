package reconstruct

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"web2local/internal/ast"
)

// ExpectedImport is a symbol one or more consumers import from a directory
// whose own index file may not (yet) re-export it.
type ExpectedImport struct {
	Symbol     string
	ImportedBy []string
	IsTypeOnly bool
}

// GeneratedFile is a file this package wants written back into the project.
type GeneratedFile struct {
	Path    string
	Content string
}

// ResolvedExport is a missing symbol this package managed to attribute to a
// concrete defining file.
type ResolvedExport struct {
	Symbol      string
	IsTypeOnly  bool
	DefiningRel string // import-style relative path from the index's directory, no extension
}

// IndexPlan is the outcome of reconstructing one directory's module index.
type IndexPlan struct {
	Dir               string
	ExistingIndexPath string // "" if none existed
	Resolved          []ResolvedExport
	Unresolved        []ExpectedImport
	Generated         GeneratedFile
}

// indexExtOrder mirrors jsSourceExts; index.ts is preferred when multiple
// candidates exist, a TypeScript-first resolution bias.
var indexExtOrder = jsSourceExts

// findIndexFile returns the existing index file's path under dir, if any.
func (p *Project) findIndexFile(dir string) string {
	for _, ext := range indexExtOrder {
		candidate := joinDir(dir, "index"+ext)
		if p.has(candidate) {
			return candidate
		}
	}
	return ""
}

func joinDir(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// collectExpectedImports walks every recovered file's relative imports and
// aggregates, per target directory, which named symbols consumers demand.
func (p *Project) collectExpectedImports() map[string][]ExpectedImport {
	type key struct {
		symbol string
		typ    bool
	}
	perDir := make(map[string]map[key]*ExpectedImport)

	for filePath, content := range p.Files {
		if !hasJSExt(filePath) {
			continue
		}
		consumerDir := dir(filePath)
		for _, imp := range ast.ParseImports(content) {
			if !ast.IsRelative(imp.Source) {
				continue
			}
			if len(imp.NamedImportDetails) == 0 {
				continue
			}
			targetDir, ok := p.resolveDirectoryImport(consumerDir, imp.Source)
			if !ok {
				continue
			}
			bucket := perDir[targetDir]
			if bucket == nil {
				bucket = make(map[key]*ExpectedImport)
				perDir[targetDir] = bucket
			}
			for _, ni := range imp.NamedImportDetails {
				isType := imp.IsTypeOnly || ni.IsTypeOnly
				k := key{symbol: ni.Name, typ: isType}
				e := bucket[k]
				if e == nil {
					e = &ExpectedImport{Symbol: ni.Name, IsTypeOnly: isType}
					bucket[k] = e
				}
				e.ImportedBy = append(e.ImportedBy, filePath)
			}
		}
	}

	out := make(map[string][]ExpectedImport, len(perDir))
	for d, bucket := range perDir {
		list := make([]ExpectedImport, 0, len(bucket))
		for _, e := range bucket {
			sort.Strings(e.ImportedBy)
			list = append(list, *e)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })
		out[d] = list
	}
	return out
}

// resolveDirectoryImport decides whether a relative import targets a
// directory's index (as opposed to a concrete file that already exists) and
// returns that directory's cleaned path.
func (p *Project) resolveDirectoryImport(consumerDir, source string) (string, bool) {
	candidate := cleanPath(path.Join(consumerDir, source))

	if p.has(candidate) {
		return "", false
	}
	for _, ext := range jsSourceExts {
		if p.has(candidate + ext) {
			return "", false
		}
	}

	prefix := candidate + "/"
	for fp := range p.Files {
		if strings.HasPrefix(fp, prefix) {
			return candidate, true
		}
	}
	return "", false
}

// ReconstructIndexes computes a plan (and generated content) for every
// directory that has unmet consumer demand.
func (p *Project) ReconstructIndexes() []IndexPlan {
	expected := p.collectExpectedImports()
	dirs := make([]string, 0, len(expected))
	for d := range expected {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var plans []IndexPlan
	for _, d := range dirs {
		plans = append(plans, p.reconstructOneIndex(d, expected[d]))
	}
	return plans
}

func (p *Project) reconstructOneIndex(targetDir string, wanted []ExpectedImport) IndexPlan {
	existingPath := p.findIndexFile(targetDir)
	var existingContent string
	var existingExports ast.Exports
	if existingPath != "" {
		existingContent, _ = p.get(existingPath)
		existingExports = ast.ParseExports(existingContent)
	}

	plan := IndexPlan{Dir: targetDir, ExistingIndexPath: existingPath}

	for _, e := range wanted {
		if existingExports.ExportsSymbol(e.Symbol) {
			continue
		}
		definingFile, ok := p.findDefiningFile(targetDir, existingPath, e.Symbol)
		if !ok {
			plan.Unresolved = append(plan.Unresolved, e)
			continue
		}
		plan.Resolved = append(plan.Resolved, ResolvedExport{
			Symbol:      e.Symbol,
			IsTypeOnly:  e.IsTypeOnly,
			DefiningRel: relImportPath(targetDir, definingFile),
		})
	}

	if len(plan.Resolved) == 0 && len(plan.Unresolved) == 0 {
		return plan
	}

	genPath := existingPath
	if genPath == "" {
		genPath = joinDir(targetDir, "index.ts")
	}
	plan.Generated = GeneratedFile{
		Path:    genPath,
		Content: renderIndex(existingContent, plan.Resolved, plan.Unresolved),
	}
	return plan
}

// findDefiningFile searches, in order: the directory itself, its src/
// subdirectory, sibling directories and their src/ subdirectories, and
// grandparent-level package directories and their src/ subdirectories. The
// first file (in path order within a tier) whose parsed exports provide the
// symbol wins.
func (p *Project) findDefiningFile(targetDir, indexPath, symbol string) (string, bool) {
	for _, tier := range p.searchTiers(targetDir) {
		candidates := p.filesIn(tier)
		sort.Strings(candidates)
		for _, c := range candidates {
			if c == indexPath || !hasJSExt(c) {
				continue
			}
			content, _ := p.get(c)
			if ast.ParseExports(content).ExportsSymbol(symbol) {
				return c, true
			}
		}
	}
	return "", false
}

func (p *Project) searchTiers(targetDir string) []string {
	tiers := []string{targetDir, joinDir(targetDir, "src")}

	parent := dir(targetDir)
	for _, sib := range p.siblingDirs(parent, targetDir) {
		tiers = append(tiers, sib, joinDir(sib, "src"))
	}

	grandparent := dir(parent)
	for _, pkg := range p.siblingDirs(grandparent, parent) {
		tiers = append(tiers, pkg, joinDir(pkg, "src"))
	}

	return tiers
}

// siblingDirs returns every direct child directory of parent other than
// exclude, sorted.
func (p *Project) siblingDirs(parent, exclude string) []string {
	seen := make(map[string]bool)
	for _, d := range p.sortedDirs() {
		if d == "" || d == exclude {
			continue
		}
		if dir(d) != parent {
			continue
		}
		if !seen[d] {
			seen[d] = true
		}
	}
	var out []string
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (p *Project) filesIn(d string) []string {
	var out []string
	for fp := range p.Files {
		if dir(fp) == d {
			out = append(out, fp)
		}
	}
	return out
}

// relImportPath renders target as an import specifier relative to fromDir,
// without an extension, always prefixed with "./" or "../".
func relImportPath(fromDir, target string) string {
	targetDir := dir(target)
	base := moduleBase(target)

	fromParts := splitNonEmpty(fromDir)
	toParts := splitNonEmpty(targetDir)

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	ups := len(fromParts) - common
	var sb strings.Builder
	if ups == 0 {
		sb.WriteString("./")
	} else {
		for i := 0; i < ups; i++ {
			sb.WriteString("../")
		}
	}
	for _, seg := range toParts[common:] {
		sb.WriteString(seg)
		sb.WriteString("/")
	}
	sb.WriteString(base)
	return sb.String()
}

func splitNonEmpty(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// renderIndex assembles the generated index file: original content verbatim
// (if any), a separator, grouped export statements by source (value and
// type-only split, symbols alphabetized within each), and a trailing comment
// naming anything that could not be attributed to a defining file.
func renderIndex(existingContent string, resolved []ResolvedExport, unresolved []ExpectedImport) string {
	var sb strings.Builder
	if existingContent != "" {
		sb.WriteString(existingContent)
		if !strings.HasSuffix(existingContent, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("// reconstructed re-exports\n")

	type group struct {
		values []string
		types  []string
	}
	groups := make(map[string]*group)
	var relPaths []string
	for _, r := range resolved {
		g := groups[r.DefiningRel]
		if g == nil {
			g = &group{}
			groups[r.DefiningRel] = g
			relPaths = append(relPaths, r.DefiningRel)
		}
		if r.IsTypeOnly {
			g.types = append(g.types, r.Symbol)
		} else {
			g.values = append(g.values, r.Symbol)
		}
	}
	sort.Strings(relPaths)

	for _, rel := range relPaths {
		g := groups[rel]
		if len(g.values) > 0 {
			sort.Strings(g.values)
			fmt.Fprintf(&sb, "export { %s } from '%s';\n", strings.Join(g.values, ", "), rel)
		}
		if len(g.types) > 0 {
			sort.Strings(g.types)
			fmt.Fprintf(&sb, "export type { %s } from '%s';\n", strings.Join(g.types, ", "), rel)
		}
	}

	if len(unresolved) > 0 {
		sb.WriteString("\n// unresolved exports — no defining file found, fix the import or add one:\n")
		for _, u := range unresolved {
			fmt.Fprintf(&sb, "//   %s (imported by %s)\n", u.Symbol, strings.Join(u.ImportedBy, ", "))
		}
	}

	return sb.String()
}

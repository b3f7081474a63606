// Package ast extracts import/export facts from JS/TS source text using
// regex-based scanning rather than a real parser, matching the scanning
// style already used throughout the bundler tooling for CJS/ESM interop
// fixups.
package ast

import (
	"regexp"
	"strings"
)

// NamedImport is one named binding in an import clause, e.g. `{ a, b as c }`.
// Name is the exported name the source module must provide ("b" in
// `b as c`); LocalName is the binding used in this file ("c").
type NamedImport struct {
	Name       string
	LocalName  string
	IsTypeOnly bool
}

// Import describes one import declaration.
type Import struct {
	Source            string
	IsTypeOnly        bool
	NamedImportDetails []NamedImport
	HasDefaultImport  bool
	HasNamespaceImport bool
}

// BareSource is a parsed non-relative import source.
type BareSource struct {
	Scope   string // "@scope", empty for unscoped
	Name    string
	Subpath string // everything after the package name, without leading slash
}

// importRe matches a full `import ... from "source"` or bare `import "source"`
// declaration, capturing the clause (if any) and the source specifier.
var importRe = regexp.MustCompile(`(?m)^\s*import\s+(type\s+)?(?:([^;'"]+?)\s+from\s+)?["']([^"']+)["']\s*;?`)

var namedClauseRe = regexp.MustCompile(`\{([^}]*)\}`)

// ParseImports extracts every import declaration from source text.
func ParseImports(source string) []Import {
	var out []Import
	for _, m := range importRe.FindAllStringSubmatch(source, -1) {
		isTypeOnly := m[1] != ""
		clause := strings.TrimSpace(m[2])
		src := m[3]

		imp := Import{Source: src, IsTypeOnly: isTypeOnly}

		if clause == "" {
			out = append(out, imp)
			continue
		}

		parseClause(clause, &imp)
		out = append(out, imp)
	}
	return out
}

// parseClause fills in Import fields from a `default, * as ns, { a, b }`
// style clause (any subset of these three forms, comma-separated).
func parseClause(clause string, imp *Import) {
	named := namedClauseRe.FindStringSubmatch(clause)
	rest := clause
	if named != nil {
		rest = strings.Replace(clause, named[0], "", 1)
		imp.NamedImportDetails = parseNamedImports(named[1])
	}

	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "*") {
			imp.HasNamespaceImport = true
			continue
		}
		imp.HasDefaultImport = true
	}
}

func parseNamedImports(body string) []NamedImport {
	var out []NamedImport
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		isTypeOnly := false
		if strings.HasPrefix(item, "type ") {
			isTypeOnly = true
			item = strings.TrimSpace(strings.TrimPrefix(item, "type "))
		}
		// "foo as bar" binds local name bar to exported name foo; the
		// defining file must export foo, not bar.
		name := item
		local := item
		if idx := strings.Index(item, " as "); idx >= 0 {
			name = strings.TrimSpace(item[:idx])
			local = strings.TrimSpace(item[idx+4:])
		}
		out = append(out, NamedImport{Name: name, LocalName: local, IsTypeOnly: isTypeOnly})
	}
	return out
}

// IsRelative reports whether an import source is relative (`.`/`..`-prefixed)
// as opposed to a bare package specifier.
func IsRelative(source string) bool {
	return strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../") || source == "." || source == ".."
}

// ParseBareSource splits a bare import source into scope/name/subpath.
func ParseBareSource(source string) BareSource {
	if strings.HasPrefix(source, "@") {
		parts := strings.SplitN(source, "/", 3)
		if len(parts) == 1 {
			return BareSource{Scope: parts[0]}
		}
		bs := BareSource{Scope: parts[0], Name: parts[1]}
		if len(parts) == 3 {
			bs.Subpath = parts[2]
		}
		return bs
	}
	parts := strings.SplitN(source, "/", 2)
	bs := BareSource{Name: parts[0]}
	if len(parts) == 2 {
		bs.Subpath = parts[1]
	}
	return bs
}

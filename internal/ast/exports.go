package ast

import (
	"regexp"
	"strings"
)

// Exports is everything one file exports.
type Exports struct {
	NamedExports     []string
	TypeExports      []string
	HasDefaultExport bool
	DefaultName      string // best-effort identifier name behind `export default`, if any
}

var (
	namedExportClauseRe  = regexp.MustCompile(`(?m)^\s*export\s+(type\s+)?\{([^}]*)\}`)
	exportDeclRe         = regexp.MustCompile(`(?m)^\s*export\s+(const|let|var|function\*?|class|async\s+function)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	exportTypeDeclRe     = regexp.MustCompile(`(?m)^\s*export\s+(?:type|interface)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	exportDefaultNamedRe = regexp.MustCompile(`(?m)^\s*export\s+default\s+(?:function\*?|class)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	exportDefaultIdentRe = regexp.MustCompile(`(?m)^\s*export\s+default\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*;`)
	exportDefaultAnyRe   = regexp.MustCompile(`(?m)^\s*export\s+default\b`)
)

// ParseExports extracts every export this file provides. It does not
// resolve re-exports from other files (`export { x } from './y'` adds x as
// a named export of THIS file's surface, which is correct: consumers
// importing from this file see x regardless of where it originated).
func ParseExports(source string) Exports {
	var ex Exports
	seen := make(map[string]bool)
	typeSeen := make(map[string]bool)

	for _, m := range namedExportClauseRe.FindAllStringSubmatch(source, -1) {
		clauseIsType := m[1] != ""
		for _, item := range strings.Split(m[2], ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			itemIsType := clauseIsType
			if strings.HasPrefix(item, "type ") {
				itemIsType = true
				item = strings.TrimSpace(strings.TrimPrefix(item, "type "))
			}
			name := item
			if idx := strings.Index(item, " as "); idx >= 0 {
				name = strings.TrimSpace(item[idx+4:])
			}
			if name == "" {
				continue
			}
			if itemIsType {
				if !typeSeen[name] {
					typeSeen[name] = true
					ex.TypeExports = append(ex.TypeExports, name)
				}
			} else if !seen[name] {
				seen[name] = true
				ex.NamedExports = append(ex.NamedExports, name)
			}
		}
	}

	for _, m := range exportDeclRe.FindAllStringSubmatch(source, -1) {
		name := m[2]
		if !seen[name] {
			seen[name] = true
			ex.NamedExports = append(ex.NamedExports, name)
		}
	}

	for _, m := range exportTypeDeclRe.FindAllStringSubmatch(source, -1) {
		name := m[1]
		if !typeSeen[name] {
			typeSeen[name] = true
			ex.TypeExports = append(ex.TypeExports, name)
		}
	}

	if m := exportDefaultNamedRe.FindStringSubmatch(source); m != nil {
		ex.HasDefaultExport = true
		ex.DefaultName = m[1]
	} else if m := exportDefaultIdentRe.FindStringSubmatch(source); m != nil {
		ex.HasDefaultExport = true
		ex.DefaultName = m[1]
	} else if exportDefaultAnyRe.MatchString(source) {
		ex.HasDefaultExport = true
	}

	return ex
}

// ExportsSymbol reports whether a file's parsed exports provide name,
// counting both named and type exports (a value import resolving against a
// type-only export is still considered found for reconstruction purposes;
// the caller separately tracks whether the import itself was type-only).
func (e Exports) ExportsSymbol(name string) bool {
	for _, n := range e.NamedExports {
		if n == name {
			return true
		}
	}
	for _, n := range e.TypeExports {
		if n == name {
			return true
		}
	}
	return name == e.DefaultName && e.HasDefaultExport
}

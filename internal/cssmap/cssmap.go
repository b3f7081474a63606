// Package cssmap recovers the base (unhashed) CSS-module class names behind
// a bundled stylesheet's hashed selectors, using the same regex-scanning
// style as the import/export extraction in internal/ast rather than a real
// CSS parser — no pack example imports one, and the selector shape this
// package cares about is narrow enough that a scanner is the idiomatic fit.
package cssmap

import (
	"regexp"
	"sort"
	"strings"
)

// ClassNameMap is the artifact this package emits: for every recovered base
// class name, every hashed variant observed across the scanned CSS, in
// first-seen order (index 0 is the canonical resolution; more than one
// entry records ambiguity the caller must flag, not resolve).
type ClassNameMap struct {
	Version     int                 `json:"version"`
	GeneratedAt string              `json:"generatedAt"`
	SourceFiles []string            `json:"sourceFiles"`
	Mappings    map[string][]string `json:"mappings"`
}

const mapVersion = 1

// selectorRe matches a class selector of the hashed-CSS-module shape
// `._name_hash_line` or `.name_hash_line` — base name, then an underscore,
// a hex hash segment, another underscore, and a trailing line number. The
// trailing `_[0-9]+` is mandatory: without it the match is a substring of a
// real selector (e.g. `.button_a1b2c3` alone, mid-selector), not a selector
// in its own right.
var selectorRe = regexp.MustCompile(`\.(_?[A-Za-z][A-Za-z0-9]*)_([0-9a-fA-F]{4,10})_([0-9]+)(?:[^A-Za-z0-9_-]|$)`)

// rejectedBaseNames are common CSS property/value words that occasionally
// collide with the hashed-selector shape by coincidence (e.g. a selector
// legitimately named `.color_a1b2c3_4` in source, not a CSS-module hash) and
// single-letter names too ambiguous to be useful as a recovered identifier.
var rejectedBaseNames = map[string]bool{
	"color": true, "background": true, "border": true, "margin": true,
	"padding": true, "display": true, "position": true, "width": true,
	"height": true, "flex": true, "grid": true, "font": true, "text": true,
	"align": true, "justify": true, "overflow": true, "opacity": true,
	"transform": true, "transition": true, "top": true, "left": true,
	"right": true, "bottom": true, "content": true, "cursor": true,
	"float": true, "clear": true, "visibility": true, "outline": true,
	"shadow": true, "filter": true, "animation": true, "gap": true,
}

// ExtractFromCSS scans one CSS file's content for hashed-class-module
// selectors, returning (baseName, fullHashedName) pairs in source order.
// The base name is returned with its case preserved, including any leading
// underscore (`_Button` and `Button` are treated as distinct base names,
// matching CSS's own case sensitivity).
func ExtractFromCSS(content string) []Pair {
	var out []Pair
	for _, m := range selectorRe.FindAllStringSubmatch(content, -1) {
		base := m[1]
		hashed := base + "_" + m[2] + "_" + m[3]
		if isRejected(base) {
			continue
		}
		out = append(out, Pair{BaseName: base, HashedName: hashed})
	}
	return out
}

// Pair is one recovered (baseName, fullHashedName) association.
type Pair struct {
	BaseName   string
	HashedName string
}

func isRejected(base string) bool {
	trimmed := strings.TrimPrefix(base, "_")
	if len(trimmed) <= 1 {
		return true
	}
	return rejectedBaseNames[strings.ToLower(trimmed)]
}

// BuildClassNameMap scans every CSS file in files (path -> content,
// restricted by the caller to bundled-looking stylesheets) and assembles
// the combined class-name map. sourceFiles in the output are sorted for
// determinism; mapping entries preserve first-seen order across files
// scanned in sorted-path order.
func BuildClassNameMap(files map[string]string, generatedAt string) ClassNameMap {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	mappings := make(map[string][]string)
	var sourceFiles []string
	for _, path := range paths {
		pairs := ExtractFromCSS(files[path])
		if len(pairs) == 0 {
			continue
		}
		sourceFiles = append(sourceFiles, path)
		for _, p := range pairs {
			if containsString(mappings[p.BaseName], p.HashedName) {
				continue
			}
			mappings[p.BaseName] = append(mappings[p.BaseName], p.HashedName)
		}
	}

	return ClassNameMap{
		Version:     mapVersion,
		GeneratedAt: generatedAt,
		SourceFiles: sourceFiles,
		Mappings:    mappings,
	}
}

func containsString(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// Resolve returns the canonical (first-seen) hashed name for a base class
// name, and whether the base name was found at all.
func (m ClassNameMap) Resolve(base string) (string, bool) {
	variants, ok := m.Mappings[base]
	if !ok || len(variants) == 0 {
		return "", false
	}
	return variants[0], true
}

// Ambiguous reports whether a base class name resolved to more than one
// distinct hashed variant across the scanned source files.
func (m ClassNameMap) Ambiguous(base string) bool {
	return len(m.Mappings[base]) > 1
}

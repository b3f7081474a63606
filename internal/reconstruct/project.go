// Package reconstruct rebuilds project-level structure — missing module
// indexes and import aliases — from the recovered source tree.
package reconstruct

import (
	"path"
	"sort"
	"strings"
)

// File is one recovered source file, keyed by its project-relative path
// (forward-slash separated, no leading slash).
type File struct {
	Path    string
	Content string
}

// Project is the recovered source tree this package operates over. It is
// intentionally a flat map rather than a real filesystem: callers build it
// from whatever storage backs the recovered sources (disk, memory, a zip).
type Project struct {
	Files map[string]string // path -> content
}

// NewProject builds a Project from a flat file list.
func NewProject(files []File) *Project {
	p := &Project{Files: make(map[string]string, len(files))}
	for _, f := range files {
		p.Files[cleanPath(f.Path)] = f.Content
	}
	return p
}

func cleanPath(p string) string {
	p = strings.TrimPrefix(p, "./")
	return path.Clean(p)
}

func (p *Project) has(pathname string) bool {
	_, ok := p.Files[cleanPath(pathname)]
	return ok
}

func (p *Project) get(pathname string) (string, bool) {
	c, ok := p.Files[cleanPath(pathname)]
	return c, ok
}

// dir returns the directory portion of a path ("" for a top-level file).
func dir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// sortedDirs returns every directory that contains at least one file,
// shallowest first then lexical, so index reconstruction processes parents
// consistently before the directories nested under them.
func (p *Project) sortedDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for fp := range p.Files {
		d := dir(fp)
		for {
			if !seen[d] {
				seen[d] = true
				dirs = append(dirs, d)
			}
			if d == "" {
				break
			}
			parent := dir(d)
			if parent == d {
				break
			}
			d = parent
		}
	}
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := strings.Count(dirs[i], "/"), strings.Count(dirs[j], "/")
		if di != dj {
			return di < dj
		}
		return dirs[i] < dirs[j]
	})
	return dirs
}

// jsSourceExts lists extensions considered in index/barrel generation and
// in the defining-file search, in the order a resolver should prefer them.
var jsSourceExts = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

func hasJSExt(p string) bool {
	for _, ext := range jsSourceExts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// stripExt removes a trailing recognized JS/TS extension, if present.
func stripExt(p string) string {
	for _, ext := range jsSourceExts {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// moduleBase returns the final path segment without extension, used as the
// module name in generated `export * from './name'` barrels.
func moduleBase(p string) string {
	return path.Base(stripExt(p))
}

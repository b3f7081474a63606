package emit

import (
	"fmt"
	"sort"

	"github.com/please-build/buildtools/build"

	"web2local/internal/reconstruct"
)

// WorkspaceManifest is the reproducibility record this package writes
// alongside the bundler config: which package versions were matched, at
// what confidence, and the final alias table, rendered in Starlark syntax
// (the same AST discipline used for generated BUILD files) rather than
// free-form text.
type WorkspaceManifest struct {
	Path     string
	Packages []PackageResolution
	Aliases  []reconstruct.Alias
}

// PackageResolution is one resolved package version entry.
type PackageResolution struct {
	Name       string
	Version    string
	Similarity float64
	Strategy   string
}

// RenderWorkspaceManifest builds a Starlark-shaped manifest file using
// buildtools' AST (CallExpr/AssignExpr/StringExpr/ListExpr/DictExpr), the
// same construction discipline used for generated BUILD files, applied
// here to a `resolved_package(...)` call per package plus one `alias(...)`
// call per inferred alias.
func RenderWorkspaceManifest(m WorkspaceManifest) []byte {
	f := &build.File{Path: m.Path, Type: build.TypeDefault}

	packages := append([]PackageResolution(nil), m.Packages...)
	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })

	for _, pkg := range packages {
		call := &build.CallExpr{X: &build.Ident{Name: "resolved_package"}, ForceMultiLine: true}
		addStringArg(call, "name", pkg.Name)
		addStringArg(call, "version", pkg.Version)
		addStringArg(call, "strategy", pkg.Strategy)
		call.List = append(call.List, &build.AssignExpr{
			LHS: &build.Ident{Name: "similarity"},
			Op:  "=",
			RHS: &build.LiteralExpr{Token: fmt.Sprintf("%.4f", pkg.Similarity)},
		})
		f.Stmt = append(f.Stmt, call)
	}

	for _, a := range m.Aliases {
		call := &build.CallExpr{X: &build.Ident{Name: "alias"}, ForceMultiLine: true}
		addStringArg(call, "name", a.Name)
		addStringArg(call, "path", a.ResolvedPath)
		addStringArg(call, "confidence", a.Confidence)
		f.Stmt = append(f.Stmt, call)
	}

	return build.Format(f)
}

// addStringArg appends a named string argument to a CallExpr.
func addStringArg(call *build.CallExpr, name, value string) {
	call.List = append(call.List, &build.AssignExpr{
		LHS: &build.Ident{Name: name},
		Op:  "=",
		RHS: &build.StringExpr{Value: value},
	})
}

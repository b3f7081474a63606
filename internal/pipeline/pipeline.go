// Package pipeline wires the recovered-source reconstruction, package
// fingerprinting, and config-emission stages into one end-to-end run,
// behind an Args/Run pair the CLI entrypoint dispatches into.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"web2local/internal/assets"
	"web2local/internal/ast"
	"web2local/internal/cache"
	"web2local/internal/cssmap"
	"web2local/internal/emit"
	"web2local/internal/orchestrator"
	"web2local/internal/progress"
	"web2local/internal/reconstruct"
	"web2local/internal/registry"
)

// Args configures one reconstruction run.
type Args struct {
	SourceDir string // recovered source tree to reconstruct
	OutDir    string // destination for lock file, workspace manifest, bundler artifacts

	PackageJSON string // defaults to SourceDir/package.json
	Tsconfig    string // defaults to SourceDir/tsconfig.json
	CacheDir    string // defaults to OutDir/.web2local-cache
	Mode        string // "production" or "development"; defaults to "production"
	EnvPrefix   string // defaults to "VITE_"

	SiteURL string // the captured site's origin, for asset URL remapping

	PackageConcurrency    int
	VersionConcurrency    int
	EntryPointConcurrency int
	IncludePrerelease     bool

	ProgressAddr string // optional "host:port" to serve progress events over a websocket
}

func (a Args) withDefaults() Args {
	if a.PackageJSON == "" {
		a.PackageJSON = filepath.Join(a.SourceDir, "package.json")
	}
	if a.Tsconfig == "" {
		a.Tsconfig = filepath.Join(a.SourceDir, "tsconfig.json")
	}
	if a.CacheDir == "" {
		a.CacheDir = filepath.Join(a.OutDir, ".web2local-cache")
	}
	if a.Mode == "" {
		a.Mode = "production"
	}
	if a.EnvPrefix == "" {
		a.EnvPrefix = "VITE_"
	}
	return a
}

// Result summarizes one completed run, for logging and tests.
type Result struct {
	RunID             string
	PackagesResolved  int
	PackagesAttempted int
	AliasesInferred   int
	IndexesGenerated  int
	BarrelsGenerated  int
	CSSClassesMapped  int
	Warning           string
}

// skippedDirs are never walked when collecting the recovered source tree.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Run executes one reconstruction end to end: it reads the recovered
// source tree, reconstructs missing indexes and aliases, maps CSS module
// class names, resolves each suspected npm dependency against the public
// registry, and writes the lock file, workspace manifest, and bundler
// config artifacts into OutDir.
func Run(ctx context.Context, args Args) (Result, error) {
	args = args.withDefaults()
	if args.SourceDir == "" {
		return Result{}, fmt.Errorf("pipeline: SourceDir is required")
	}
	if args.OutDir == "" {
		return Result{}, fmt.Errorf("pipeline: OutDir is required")
	}
	if err := os.MkdirAll(args.OutDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating out dir: %w", err)
	}

	files, err := readSourceTree(args.SourceDir)
	if err != nil {
		return Result{}, fmt.Errorf("reading source tree: %w", err)
	}
	project := reconstruct.NewProject(files)

	dependencies := readDependencies(args.PackageJSON)

	tsconfigContent := readFileOrEmpty(args.Tsconfig)
	aliases := project.InferAliases(tsconfigContent, filepath.Dir(args.Tsconfig), dependencies)

	indexPlans := project.ReconstructIndexes()
	barrels := project.GenerateBarrelIndexes(aliasTargetDirs(aliases))

	classMap := cssmap.BuildClassNameMap(cssFilesOf(files), time.Now().UTC().Format(time.RFC3339))

	entryPoints := detectEntryPoints(files)
	if args.SiteURL != "" {
		entryPoints = localizeEntryPoints(args.SiteURL, entryPoints)
	}

	vendorFiles, err := readVendorFiles(args.SourceDir)
	if err != nil {
		return Result{}, fmt.Errorf("reading vendor source tree: %w", err)
	}

	matches, runID, err := resolvePackages(ctx, args, dependencies, files, vendorFiles)
	if err != nil {
		return Result{}, err
	}

	if err := writeArtifacts(args, aliases, indexPlans, barrels, classMap, matches, dependencies, entryPoints, files); err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:             runID,
		PackagesAttempted: len(dependencies),
		AliasesInferred:   len(aliases),
		IndexesGenerated:  len(indexPlans),
		BarrelsGenerated:  len(barrels),
		CSSClassesMapped:  len(classMap.Mappings),
	}
	for _, m := range matches {
		if m.Found {
			res.PackagesResolved++
		}
	}
	return res, nil
}

func readSourceTree(root string) ([]reconstruct.File, error) {
	var files []reconstruct.File
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skippedDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, reconstruct.File{Path: filepath.ToSlash(rel), Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// readVendorFiles walks SourceDir a second time, collecting only
// node_modules-origin files. internal/sourcemap's extraction step normally
// drops node_modules content, but preserves it for packages the caller
// whitelists as worth recovering verbatim — that preserved vendor source is
// the most direct content a package candidate can be fingerprinted against,
// so it's read separately from the first-party tree readSourceTree collects.
func readVendorFiles(root string) ([]reconstruct.File, error) {
	var files []reconstruct.File
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.Contains(rel, "node_modules/") {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, reconstruct.File{Path: rel, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func readDependencies(packageJSONPath string) map[string]bool {
	data, err := os.ReadFile(packageJSONPath)
	if err != nil {
		return map[string]bool{}
	}
	var doc struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(doc.Dependencies)+len(doc.DevDependencies))
	for name := range doc.Dependencies {
		out[name] = true
	}
	for name := range doc.DevDependencies {
		out[name] = true
	}
	return out
}

func readFileOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// aliasTargetDirs strips the "./"-prefix and trailing wildcard segment off
// each alias's resolved path, leaving the directory GenerateBarrelIndexes
// expects.
func aliasTargetDirs(aliases []reconstruct.Alias) []string {
	seen := make(map[string]bool, len(aliases))
	var dirs []string
	for _, a := range aliases {
		d := strings.TrimPrefix(a.ResolvedPath, "./")
		d = strings.TrimSuffix(d, "/*")
		d = strings.TrimSuffix(d, "*")
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	return dirs
}

func cssFilesOf(files []reconstruct.File) map[string]string {
	out := make(map[string]string)
	for _, f := range files {
		if strings.HasSuffix(f.Path, ".css") {
			out[f.Path] = f.Content
		}
	}
	return out
}

// detectEnvVars scans every first-party source file for process.env.X /
// import.meta.env.X accesses, deduped across files and sorted with
// process.env accesses first, then by key.
func detectEnvVars(files []reconstruct.File) []emit.DetectedEnvVar {
	seen := make(map[string]bool)
	var out []emit.DetectedEnvVar
	for _, f := range files {
		if !hasJSOrTSExt(f.Path) {
			continue
		}
		for _, v := range emit.DetectEnvVars(f.Content) {
			key := fmt.Sprintf("%t:%s", v.FromNodeEnv, v.Key)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromNodeEnv != out[j].FromNodeEnv {
			return out[i].FromNodeEnv
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// detectVirtualModules scans for "virtual:"-prefixed import sources, which
// emit.VirtualModulePlugin needs named so it can declare which specifiers
// it's standing in for.
func detectVirtualModules(files []reconstruct.File) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range files {
		if !hasJSOrTSExt(f.Path) {
			continue
		}
		for _, imp := range ast.ParseImports(f.Content) {
			if !strings.HasPrefix(imp.Source, "virtual:") || seen[imp.Source] {
				continue
			}
			seen[imp.Source] = true
			out = append(out, imp.Source)
		}
	}
	sort.Strings(out)
	return out
}

// detectCSSModuleStubs finds relative ".module.css" imports whose target
// file was never recovered, which is exactly the set emit.CSSModuleStubPlugin
// needs to know about so it can serve a synthetic module in their place
// instead of failing the build on a missing import.
func detectCSSModuleStubs(files []reconstruct.File) []string {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.Path] = true
	}

	seen := make(map[string]bool)
	var stubs []string
	for _, f := range files {
		if !hasJSOrTSExt(f.Path) {
			continue
		}
		for _, imp := range ast.ParseImports(f.Content) {
			if !ast.IsRelative(imp.Source) || !strings.HasSuffix(imp.Source, ".module.css") {
				continue
			}
			resolved := path.Clean(path.Join(path.Dir(f.Path), imp.Source))
			if present[resolved] || seen[resolved] {
				continue
			}
			seen[resolved] = true
			stubs = append(stubs, resolved)
		}
	}
	sort.Strings(stubs)
	return stubs
}

func detectEntryPoints(files []reconstruct.File) []string {
	for _, f := range files {
		if strings.HasSuffix(f.Path, ".html") {
			if eps := emit.DetectEntryPoints(f.Content); len(eps) > 0 {
				return eps
			}
		}
	}
	return nil
}

// localizeEntryPoints maps any absolute, cross-origin entry point reference
// (a script src still pointing at the captured site) to its local on-disk
// path, leaving already-relative entries untouched.
func localizeEntryPoints(siteURL string, entryPoints []string) []string {
	out := make([]string, len(entryPoints))
	for i, ep := range entryPoints {
		if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
			out[i] = ep
			continue
		}
		local, err := assets.MapURL(siteURL, ep)
		if err != nil {
			out[i] = ep
			continue
		}
		out[i] = "/" + local
	}
	return out
}

func resolvePackages(ctx context.Context, args Args, dependencies map[string]bool, files, vendorFiles []reconstruct.File) ([]orchestrator.Match, string, error) {
	store, err := cache.NewDiskStore(args.CacheDir, 1024)
	if err != nil {
		return nil, "", fmt.Errorf("opening cache: %w", err)
	}
	reg := registry.NewClient(http.DefaultClient)
	orch := orchestrator.New(reg, store, orchestrator.Options{
		PackageConcurrency:    args.PackageConcurrency,
		VersionConcurrency:    args.VersionConcurrency,
		EntryPointConcurrency: args.EntryPointConcurrency,
		IncludePrerelease:     args.IncludePrerelease,
	})

	var notifier *progress.Notifier
	if args.ProgressAddr != "" {
		notifier = progress.NewNotifier()
		server := &http.Server{Addr: args.ProgressAddr, Handler: notifier}
		go func() {
			_ = server.ListenAndServe()
		}()
	}

	names := make([]string, 0, len(dependencies))
	for name := range dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	candidateFiles := attributePackageFiles(files, vendorFiles, names)
	candidates := make([]orchestrator.PackageCandidate, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, orchestrator.PackageCandidate{Name: name, Files: candidateFiles[name]})
	}

	var notify orchestrator.Notify
	if notifier != nil {
		notify = func(e orchestrator.Event) { notifier.Send(e) }
	}

	run := orch.Resolve(ctx, candidates, notify)
	if notifier != nil {
		notifier.Close()
	}
	return run.Matches, run.ID, nil
}

// attributePackageFiles groups recovered source into per-package candidate
// content for the orchestrator to fingerprint. vendor files recovered under
// a node_modules/<pkg>/ path are attributed directly — the strongest
// signal, since that's the package's own published source. A package with
// no vendor file is instead attributed every first-party file that
// bare-imports it: weaker evidence (it's the importer's code, not the
// package's), but enough to feed the orchestrator's structural fallback
// rather than leaving the candidate with no files at all.
func attributePackageFiles(files, vendorFiles []reconstruct.File, names []string) map[string][]orchestrator.ExtractedFile {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	out := make(map[string][]orchestrator.ExtractedFile)
	hasVendor := make(map[string]bool)
	for _, f := range vendorFiles {
		pkg, rel, ok := packageFromNodeModulesPath(f.Path)
		if !ok || !wanted[pkg] {
			continue
		}
		out[pkg] = append(out[pkg], orchestrator.ExtractedFile{Path: rel, Content: f.Content})
		hasVendor[pkg] = true
	}

	for _, f := range files {
		if !hasJSOrTSExt(f.Path) {
			continue
		}
		for _, imp := range ast.ParseImports(f.Content) {
			if ast.IsRelative(imp.Source) {
				continue
			}
			pkg := bareImportPackageName(imp.Source)
			if !wanted[pkg] || hasVendor[pkg] {
				continue
			}
			out[pkg] = append(out[pkg], orchestrator.ExtractedFile{Path: f.Path, Content: f.Content})
		}
	}
	return out
}

// packageFromNodeModulesPath splits a recovered path's last node_modules/
// segment into the package name it names and the file's path relative to
// that package's root, mirroring internal/sourcemap's own
// node_modules-segment parsing.
func packageFromNodeModulesPath(p string) (pkg, rel string, ok bool) {
	const marker = "node_modules/"
	idx := strings.LastIndex(p, marker)
	if idx < 0 {
		return "", "", false
	}
	rest := p[idx+len(marker):]
	if strings.HasPrefix(rest, "@") {
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) < 3 {
			return "", "", false
		}
		return parts[0] + "/" + parts[1], parts[2], true
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// bareImportPackageName collapses a bare import source down to its
// package name, dropping any subpath (e.g. "lodash/debounce" -> "lodash").
func bareImportPackageName(source string) string {
	bs := ast.ParseBareSource(source)
	if bs.Scope != "" {
		return bs.Scope + "/" + bs.Name
	}
	return bs.Name
}

func hasJSOrTSExt(p string) bool {
	for _, ext := range []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"} {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

func writeArtifacts(
	args Args,
	aliases []reconstruct.Alias,
	indexPlans []reconstruct.IndexPlan,
	barrels []reconstruct.GeneratedFile,
	classMap cssmap.ClassNameMap,
	matches []orchestrator.Match,
	dependencies map[string]bool,
	entryPoints []string,
	files []reconstruct.File,
) error {
	lockedPackages := make([]emit.LockedPackage, 0, len(matches))
	resolutions := make([]emit.PackageResolution, 0, len(matches))
	for _, m := range matches {
		if !m.Found {
			continue
		}
		lockedPackages = append(lockedPackages, emit.LockedPackage{
			Name: m.Package, Version: m.Version, Similarity: m.Similarity, Strategy: string(m.Strategy),
		})
		resolutions = append(resolutions, emit.PackageResolution{
			Name: m.Package, Version: m.Version, Similarity: m.Similarity, Strategy: string(m.Strategy),
		})
	}

	lockData, err := emit.MarshalLockFile(emit.BuildLockFile(lockedPackages, aliases))
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(filepath.Join(args.OutDir, "web2local.lock.yaml"), lockData, 0o644); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}

	manifest := emit.RenderWorkspaceManifest(emit.WorkspaceManifest{
		Path:     filepath.Join(args.OutDir, "WORKSPACE"),
		Packages: resolutions,
		Aliases:  aliases,
	})
	if err := os.WriteFile(filepath.Join(args.OutDir, "WORKSPACE"), manifest, 0o644); err != nil {
		return fmt.Errorf("writing workspace manifest: %w", err)
	}

	define, err := emit.LoadEnvDefines(filepath.Join(args.SourceDir, ".env"), args.Mode, args.EnvPrefix)
	if err != nil {
		return fmt.Errorf("loading env defines: %w", err)
	}
	for k, v := range emit.BuildDetectedDefines(detectEnvVars(files), define) {
		define[k] = v
	}

	virtualModules := detectVirtualModules(files)
	cssModuleStubs := detectCSSModuleStubs(files)

	cfg := emit.BuildConfig(dependencies, aliases, define, entryPoints, virtualModules, len(cssModuleStubs) > 0)
	cfg.WarnIfDegraded()

	if err := writeConfigArtifact(args.OutDir, cfg, cssModuleStubs); err != nil {
		return err
	}

	classData, err := json.MarshalIndent(classMap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling class name map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(args.OutDir, "classnames.json"), classData, 0o644); err != nil {
		return fmt.Errorf("writing class name map: %w", err)
	}

	if err := writeGeneratedFiles(args.OutDir, indexPlans); err != nil {
		return err
	}
	if err := writeBarrelFiles(args.OutDir, barrels); err != nil {
		return err
	}
	return nil
}

// configArtifact is the bundler configuration written to OutDir: the
// computed emit.Config plus the plugin names and CSS-module stub paths a
// generated bundler config needs to actually wire in, since emit.Config
// itself only carries the data those plugins are built from.
type configArtifact struct {
	emit.Config
	Plugins        []string `json:"plugins"`
	CSSModuleStubs []string `json:"cssModuleStubs,omitempty"`
}

func writeConfigArtifact(outDir string, cfg emit.Config, cssModuleStubs []string) error {
	artifact := configArtifact{Config: cfg, Plugins: activePlugins(cfg), CSSModuleStubs: cssModuleStubs}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bundler config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "bundler-config.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing bundler config: %w", err)
	}
	return nil
}

// activePlugins names the esbuild plugins the generated config should
// declare, derived from the same signals that shaped cfg itself.
func activePlugins(cfg emit.Config) []string {
	var plugins []string
	if cfg.Framework != "" {
		plugins = append(plugins, cfg.Framework)
	}
	if len(cfg.VirtualModules) > 0 {
		plugins = append(plugins, "virtual-module-stub")
	}
	if cfg.CSSModuleStub {
		plugins = append(plugins, "css-module-stub")
	}
	return plugins
}

func writeGeneratedFiles(outDir string, plans []reconstruct.IndexPlan) error {
	for _, plan := range plans {
		if plan.Generated.Path == "" {
			continue
		}
		if err := writeGenerated(outDir, plan.Generated); err != nil {
			return err
		}
	}
	return nil
}

func writeBarrelFiles(outDir string, barrels []reconstruct.GeneratedFile) error {
	for _, b := range barrels {
		if err := writeGenerated(outDir, b); err != nil {
			return err
		}
	}
	return nil
}

func writeGenerated(outDir string, f reconstruct.GeneratedFile) error {
	dest := filepath.Join(outDir, "generated", filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(f.Content), 0o644)
}

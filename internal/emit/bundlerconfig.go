package emit

import (
	"fmt"
	"os"
	"sort"

	"web2local/internal/reconstruct"
)

// frameworkPlugins maps a detected framework to the esbuild/Vite-style
// plugin name the emitted config should declare. Order matters: react is
// checked for last among the JSX-capable frameworks since preact/solid
// projects commonly also depend on react-adjacent typings packages.
var frameworkPlugins = []struct {
	Name         string
	Dependencies []string
}{
	{Name: "vue", Dependencies: []string{"vue"}},
	{Name: "svelte", Dependencies: []string{"svelte"}},
	{Name: "solid", Dependencies: []string{"solid-js"}},
	{Name: "preact", Dependencies: []string{"preact"}},
	{Name: "react", Dependencies: []string{"react", "react-dom"}},
}

// DetectFramework picks a framework plugin from declared dependencies. An
// empty string means no recognized framework was found, and the emitter
// should degrade to a vanilla configuration.
func DetectFramework(dependencies map[string]bool) string {
	for _, fw := range frameworkPlugins {
		for _, dep := range fw.Dependencies {
			if dependencies[dep] {
				return fw.Name
			}
		}
	}
	return ""
}

// Config is the bundler configuration this package emits. It is
// framework-neutral at this layer; rendering it into an actual Vite/esbuild
// config file is the caller's job (kept separate so the config's shape can
// be tested without string-comparing generated source).
type Config struct {
	Framework       string // "" means unknown/vanilla; Warning is set in that case
	Warning         string
	Aliases         []reconstruct.Alias // already sorted by specificity
	Define          map[string]string
	EntryPoints     []string
	OutDir          string
	OutputPattern   string // "[name]-[hash]"
	VirtualModules  []string
	CSSModuleStub   bool
}

const defaultOutputPattern = "[name]-[hash]"

// BuildConfig assembles the bundler configuration from the reconstruction
// phase's outputs. dependencies drives framework detection; aliases must
// already be sorted by specificity (reconstruct.InferAliases does this).
// entryPoints is the detected entry point set (e.g. from index.html's
// <script> tags); an empty set is valid and simply produces a config with
// no build input (the caller decides whether that's fatal).
func BuildConfig(dependencies map[string]bool, aliases []reconstruct.Alias, define map[string]string, entryPoints []string, virtualModules []string, cssModuleStub bool) Config {
	cfg := Config{
		Aliases:        aliases,
		Define:         copyDefines(define),
		EntryPoints:    append([]string(nil), entryPoints...),
		OutDir:         "dist",
		OutputPattern:  defaultOutputPattern,
		VirtualModules: append([]string(nil), virtualModules...),
		CSSModuleStub:  cssModuleStub,
	}

	cfg.Framework = DetectFramework(dependencies)
	if cfg.Framework == "" {
		cfg.Warning = "no recognized framework dependency found; emitting a vanilla configuration"
	}

	MergeEnvDefines(cfg.Define, "production")
	return cfg
}

func copyDefines(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// WarnIfDegraded writes cfg.Warning to stderr as a fire-and-forget
// "warning: ..." diagnostic (never fatal).
func (cfg Config) WarnIfDegraded() {
	if cfg.Warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", cfg.Warning)
	}
}

// SortedDefineKeys returns cfg.Define's keys in sorted order, for
// deterministic config rendering.
func (cfg Config) SortedDefineKeys() []string {
	keys := make([]string, 0, len(cfg.Define))
	for k := range cfg.Define {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

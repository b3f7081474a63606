package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const virtualModuleNamespace = "web2local-virtual"

// virtualModuleStub is served for any import whose source begins with
// `virtual:`. It's a Proxy that returns further Proxies on any property
// access, call, or construction, so code written against a bundler-specific
// virtual module (PWA manifests, build-info modules, etc.) keeps running
// instead of throwing on the first undefined access.
const virtualModuleStub = `
function makeProxy() {
	const handler = {
		get(_target, prop) {
			if (prop === Symbol.toPrimitive || prop === 'then') return undefined;
			return makeProxy();
		},
		apply() { return makeProxy(); },
		construct() { return makeProxy(); },
	};
	return new Proxy(function () {}, handler);
}
export default makeProxy();
`

// VirtualModulePlugin returns an esbuild plugin that intercepts any import
// source beginning with "virtual:" and serves virtualModuleStub in its
// place, regardless of how the importer destructures it (default, named, or
// namespace import all resolve against the same Proxy-backed module).
func VirtualModulePlugin() api.Plugin {
	return api.Plugin{
		Name: "virtual-module-stub",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^virtual:`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: virtualModuleNamespace}, nil
				},
			)
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: virtualModuleNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := virtualModuleStub
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				},
			)
		},
	}
}

const cssModuleStubNamespace = "web2local-css-module-stub"

var cssModuleStubFileRe = regexp.MustCompile(`\.module\.css$`)

// CSSModuleStubPlugin returns an esbuild plugin that serves a synthetic
// module for CSS-module imports whose underlying .module.css file is a
// reconstruction-generated stub (no real CSS recovered). The served module
// returns a Proxy mapping each accessed base class name to the first
// hashed variant recorded in classMap, falling back to the identity
// mapping (the base name itself) for anything classMap doesn't know about.
func CSSModuleStubPlugin(isStub func(path string) bool, classMap map[string][]string) api.Plugin {
	return api.Plugin{
		Name: "css-module-stub",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: cssModuleStubFileRe.String()},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if !isStub(args.Path) {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: args.Path, Namespace: cssModuleStubNamespace}, nil
				},
			)
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: cssModuleStubNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := renderCSSModuleStub(classMap)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				},
			)
		},
	}
}

// renderCSSModuleStub emits a JS object literal mapping each base class
// name to its first recorded hashed variant, wrapped in a Proxy whose
// fallback is the identity mapping, then exported as the module's default.
func renderCSSModuleStub(classMap map[string][]string) string {
	var sb strings.Builder
	sb.WriteString("const known = {\n")
	for base, hashed := range classMap {
		if len(hashed) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  %q: %q,\n", base, hashed[0])
	}
	sb.WriteString("};\n")
	sb.WriteString(`export default new Proxy(known, { get(target, prop) { return prop in target ? target[prop] : prop; } });` + "\n")
	return sb.String()
}

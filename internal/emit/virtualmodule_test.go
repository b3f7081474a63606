package emit

import (
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
)

func TestVirtualModulePlugin_ResolvesVirtualPrefixedImports(t *testing.T) {
	plugin := VirtualModulePlugin()
	if plugin.Name == "" {
		t.Fatalf("expected a named plugin")
	}
	result := api.BuildSync(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   `import info from "virtual:build-info"; export default typeof info;`,
			Loader:     api.LoaderJS,
			ResolveDir: ".",
		},
		Bundle:  true,
		Write:   false,
		Plugins: []api.Plugin{plugin},
	})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected build errors: %+v", result.Errors)
	}
	if len(result.OutputFiles) == 0 {
		t.Fatalf("expected output to be produced")
	}
	if !strings.Contains(string(result.OutputFiles[0].Contents), "Proxy") {
		t.Fatalf("expected the stub's Proxy machinery to be inlined, got:\n%s", result.OutputFiles[0].Contents)
	}
}

func TestCSSModuleStubPlugin_OnlyInterceptsStubbedFiles(t *testing.T) {
	isStub := func(path string) bool { return strings.Contains(path, "stubbed") }
	plugin := CSSModuleStubPlugin(isStub, map[string][]string{"title": {"title_a1b2c3_12"}})
	if plugin.Name == "" {
		t.Fatalf("expected a named plugin")
	}
}

func TestRenderCSSModuleStub_MapsBaseNameToFirstHashedVariant(t *testing.T) {
	out := renderCSSModuleStub(map[string][]string{"title": {"title_a1b2c3_12", "title_d4e5f6_13"}})
	if !strings.Contains(out, `"title": "title_a1b2c3_12"`) {
		t.Fatalf("expected first hashed variant chosen, got:\n%s", out)
	}
	if !strings.Contains(out, "Proxy") {
		t.Fatalf("expected an identity-fallback Proxy, got:\n%s", out)
	}
}

func TestRenderCSSModuleStub_SkipsClassesWithNoHashedVariant(t *testing.T) {
	out := renderCSSModuleStub(map[string][]string{"empty": {}})
	if strings.Contains(out, `"empty"`) {
		t.Fatalf("expected classes with no recorded variant to be omitted, got:\n%s", out)
	}
}

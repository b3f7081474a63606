package emit

import (
	"strings"
	"testing"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head><title>App</title></head>
<body>
<div id="root"></div>
<script type="module" src="/src/main.tsx"></script>
<script src="/vendor/polyfill.js"></script>
</body>
</html>`

func TestDetectEntryPoints_FindsScriptSrcInDocumentOrder(t *testing.T) {
	got := DetectEntryPoints(sampleHTML)
	want := []string{"/src/main.tsx", "/vendor/polyfill.js"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDetectEntryPoints_IgnoresScriptsWithoutSrc(t *testing.T) {
	got := DetectEntryPoints(`<script>console.log("inline")</script>`)
	if len(got) != 0 {
		t.Fatalf("expected no entry points for an inline script, got %v", got)
	}
}

func TestRewriteEntryPointSrc_ReplacesMatchingSrcOnly(t *testing.T) {
	out := RewriteEntryPointSrc(sampleHTML, "/src/main.tsx", "/dist/main-a1b2c3.js")
	if !strings.Contains(out, `src="/dist/main-a1b2c3.js"`) {
		t.Fatalf("expected rewritten src, got:\n%s", out)
	}
	if !strings.Contains(out, `src="/vendor/polyfill.js"`) {
		t.Fatalf("expected unrelated script src left untouched, got:\n%s", out)
	}
	if strings.Contains(out, "/src/main.tsx") {
		t.Fatalf("expected old src fully replaced, got:\n%s", out)
	}
}

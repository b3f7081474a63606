package emit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvDefines_PriorityChainOverrides(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	writeFile(t, base, "VITE_API_URL=https://base.example\nVITE_ONLY_BASE=1\n")
	writeFile(t, base+".production", "VITE_API_URL=https://prod.example\n")

	defines, err := LoadEnvDefines(base, "production", "VITE_")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defines["import.meta.env.VITE_API_URL"] != `"https://prod.example"` {
		t.Fatalf("expected mode-specific override to win, got %+v", defines)
	}
	if defines["import.meta.env.VITE_ONLY_BASE"] != `"1"` {
		t.Fatalf("expected base-only var preserved, got %+v", defines)
	}
}

func TestLoadEnvDefines_MissingFilesAreNotErrors(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	if _, err := LoadEnvDefines(base, "development", "VITE_"); err != nil {
		t.Fatalf("expected no error for an entirely missing chain, got %v", err)
	}
}

func TestLoadEnvDefines_FiltersByPrefix(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, ".env")
	writeFile(t, base, "VITE_KEEP=1\nSECRET_DROP=2\n")

	defines, err := LoadEnvDefines(base, "development", "VITE_")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := defines["import.meta.env.VITE_KEEP"]; !ok {
		t.Fatalf("expected VITE_KEEP present, got %+v", defines)
	}
	if _, ok := defines["import.meta.env.SECRET_DROP"]; ok {
		t.Fatalf("expected non-prefixed var excluded, got %+v", defines)
	}
}

func TestMergeEnvDefines_DoesNotOverrideExisting(t *testing.T) {
	define := map[string]string{"import.meta.env.MODE": `"custom"`}
	MergeEnvDefines(define, "production")
	if define["import.meta.env.MODE"] != `"custom"` {
		t.Fatalf("expected existing MODE preserved, got %q", define["import.meta.env.MODE"])
	}
	if define["process.env.NODE_ENV"] != `"production"` {
		t.Fatalf("expected NODE_ENV default injected, got %+v", define)
	}
}

func TestBuildDetectedDefines_ExcludesNodeEnv(t *testing.T) {
	vars := []DetectedEnvVar{{Key: "NODE_ENV", FromNodeEnv: true}, {Key: "API_URL"}}
	out := BuildDetectedDefines(vars, map[string]string{"import.meta.env.API_URL": `"https://x"`})
	if _, ok := out["process.env.NODE_ENV"]; ok {
		t.Fatalf("expected NODE_ENV excluded, got %+v", out)
	}
	if out["import.meta.env.API_URL"] != `"https://x"` {
		t.Fatalf("expected merged value reused, got %+v", out)
	}
}

func TestBuildDetectedDefines_FallsBackToEmptyString(t *testing.T) {
	out := BuildDetectedDefines([]DetectedEnvVar{{Key: "UNSET"}}, map[string]string{})
	if out["import.meta.env.UNSET"] != `""` {
		t.Fatalf("expected empty-string fallback, got %+v", out)
	}
}

func TestDetectEnvVars_FindsBothNodeAndViteStyleAccesses(t *testing.T) {
	src := `
const a = process.env.API_KEY;
const b = import.meta.env.VITE_FEATURE_FLAG;
const c = process.env.API_KEY; // duplicate access
`
	vars := DetectEnvVars(src)
	if len(vars) != 2 {
		t.Fatalf("expected 2 deduped vars, got %+v", vars)
	}
	if vars[0].Key != "API_KEY" || !vars[0].FromNodeEnv {
		t.Fatalf("expected process.env var first, got %+v", vars[0])
	}
	if vars[1].Key != "VITE_FEATURE_FLAG" || vars[1].FromNodeEnv {
		t.Fatalf("expected import.meta.env var second, got %+v", vars[1])
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

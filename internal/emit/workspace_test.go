package emit

import (
	"strings"
	"testing"

	"web2local/internal/reconstruct"
)

func TestRenderWorkspaceManifest_EmitsResolvedPackageCalls(t *testing.T) {
	out := RenderWorkspaceManifest(WorkspaceManifest{
		Path: "web2local.workspace",
		Packages: []PackageResolution{
			{Name: "lodash", Version: "4.17.21", Similarity: 1, Strategy: "exact"},
		},
	})
	s := string(out)
	if !strings.Contains(s, `resolved_package(`) {
		t.Fatalf("expected a resolved_package call, got:\n%s", s)
	}
	if !strings.Contains(s, `name = "lodash"`) || !strings.Contains(s, `version = "4.17.21"`) {
		t.Fatalf("expected name/version fields, got:\n%s", s)
	}
}

func TestRenderWorkspaceManifest_SortsPackagesByName(t *testing.T) {
	out := RenderWorkspaceManifest(WorkspaceManifest{
		Path: "web2local.workspace",
		Packages: []PackageResolution{
			{Name: "zod", Version: "1.0.0", Strategy: "exact"},
			{Name: "axios", Version: "1.0.0", Strategy: "exact"},
		},
	})
	s := string(out)
	if strings.Index(s, `"axios"`) > strings.Index(s, `"zod"`) {
		t.Fatalf("expected axios before zod, got:\n%s", s)
	}
}

func TestRenderWorkspaceManifest_EmitsAliasCalls(t *testing.T) {
	out := RenderWorkspaceManifest(WorkspaceManifest{
		Path: "web2local.workspace",
		Aliases: []reconstruct.Alias{
			{Name: "@/*", ResolvedPath: "./src/*", Confidence: reconstruct.ConfidenceExact},
		},
	})
	s := string(out)
	if !strings.Contains(s, `alias(`) || !strings.Contains(s, `path = "./src/*"`) {
		t.Fatalf("expected an alias call with resolved path, got:\n%s", s)
	}
}

func TestRenderWorkspaceManifest_FormatsSimilarityToFourDecimals(t *testing.T) {
	out := RenderWorkspaceManifest(WorkspaceManifest{
		Path:     "web2local.workspace",
		Packages: []PackageResolution{{Name: "foo", Version: "1.0.0", Similarity: 0.9, Strategy: "fuzzy"}},
	})
	if !strings.Contains(string(out), "similarity = 0.9000") {
		t.Fatalf("expected 4-decimal similarity, got:\n%s", out)
	}
}

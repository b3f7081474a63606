package reconstruct

import (
	"strings"
	"testing"
)

func TestReconstructIndexes_MissingExportsGroupedAndSorted(t *testing.T) {
	p := NewProject([]File{
		{Path: "foo.ts", Content: "import { bar, qux } from './m';\n"},
		{Path: "m/x.ts", Content: "export const bar = 1;\n"},
		{Path: "m/y.ts", Content: "export const qux = 2;\n"},
	})

	plans := p.ReconstructIndexes()
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d: %+v", len(plans), plans)
	}
	plan := plans[0]
	if plan.Dir != "m" {
		t.Fatalf("expected dir m, got %q", plan.Dir)
	}
	if plan.ExistingIndexPath != "" {
		t.Fatalf("expected no existing index, got %q", plan.ExistingIndexPath)
	}
	if len(plan.Resolved) != 2 {
		t.Fatalf("expected 2 resolved exports, got %+v", plan.Resolved)
	}
	if len(plan.Unresolved) != 0 {
		t.Fatalf("expected no unresolved exports, got %+v", plan.Unresolved)
	}
	want := "// reconstructed re-exports\nexport { bar } from './x';\nexport { qux } from './y';\n"
	if plan.Generated.Content != want {
		t.Fatalf("unexpected generated content: %q want %q", plan.Generated.Content, want)
	}
	if plan.Generated.Path != "m/index.ts" {
		t.Fatalf("unexpected generated path: %q", plan.Generated.Path)
	}
}

func TestReconstructIndexes_PreservesExistingIndexContent(t *testing.T) {
	p := NewProject([]File{
		{Path: "foo.ts", Content: "import { bar, qux } from './m';\n"},
		{Path: "m/index.ts", Content: "export const bar = 1;\n"},
		{Path: "m/y.ts", Content: "export const qux = 2;\n"},
	})

	plans := p.ReconstructIndexes()
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	plan := plans[0]
	if plan.ExistingIndexPath != "m/index.ts" {
		t.Fatalf("expected existing index detected, got %q", plan.ExistingIndexPath)
	}
	if len(plan.Resolved) != 1 || plan.Resolved[0].Symbol != "qux" {
		t.Fatalf("expected only qux missing, got %+v", plan.Resolved)
	}
	want := "export const bar = 1;\n\n// reconstructed re-exports\nexport { qux } from './y';\n"
	if plan.Generated.Content != want {
		t.Fatalf("unexpected generated content: %q want %q", plan.Generated.Content, want)
	}
}

func TestReconstructIndexes_TypeOnlySplitIntoSeparateClause(t *testing.T) {
	p := NewProject([]File{
		{Path: "foo.ts", Content: "import type { Props } from './m';\nimport { widget } from './m';\n"},
		{Path: "m/a.ts", Content: "export type Props = { a: number };\nexport const widget = 1;\n"},
	})

	plans := p.ReconstructIndexes()
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	content := plans[0].Generated.Content
	if want := "export { widget } from './a';\n"; !strings.Contains(content, want) {
		t.Fatalf("expected value clause, got %q", content)
	}
	if want := "export type { Props } from './a';\n"; !strings.Contains(content, want) {
		t.Fatalf("expected type clause, got %q", content)
	}
}

func TestReconstructIndexes_UnresolvedSymbolListedInTrailingComment(t *testing.T) {
	p := NewProject([]File{
		{Path: "foo.ts", Content: "import { ghost } from './m';\n"},
		{Path: "m/x.ts", Content: "export const bar = 1;\n"},
	})

	plans := p.ReconstructIndexes()
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	plan := plans[0]
	if len(plan.Unresolved) != 1 || plan.Unresolved[0].Symbol != "ghost" {
		t.Fatalf("expected ghost unresolved, got %+v", plan.Unresolved)
	}
	if !strings.Contains(plan.Generated.Content, "// unresolved exports") {
		t.Fatalf("expected unresolved comment block, got %q", plan.Generated.Content)
	}
	if !strings.Contains(plan.Generated.Content, "ghost (imported by foo.ts)") {
		t.Fatalf("expected ghost attribution, got %q", plan.Generated.Content)
	}
}

func TestReconstructIndexes_SearchFallsBackToSrcSubdir(t *testing.T) {
	p := NewProject([]File{
		{Path: "foo.ts", Content: "import { widget } from './m';\n"},
		{Path: "m/src/widget.ts", Content: "export const widget = 1;\n"},
	})

	plans := p.ReconstructIndexes()
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	plan := plans[0]
	if len(plan.Resolved) != 1 {
		t.Fatalf("expected resolved via src/, got %+v", plan)
	}
	if plan.Resolved[0].DefiningRel != "./src/widget" {
		t.Fatalf("unexpected rel path: %q", plan.Resolved[0].DefiningRel)
	}
}

func TestReconstructIndexes_NoExpectedImportsProducesNoPlans(t *testing.T) {
	p := NewProject([]File{
		{Path: "foo.ts", Content: "const x = 1;\n"},
	})
	if plans := p.ReconstructIndexes(); len(plans) != 0 {
		t.Fatalf("expected no plans, got %+v", plans)
	}
}


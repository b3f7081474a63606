package ast

import "testing"

func TestParseExports_NamedClause(t *testing.T) {
	ex := ParseExports(`export { foo, bar as baz };`)
	if len(ex.NamedExports) != 2 {
		t.Fatalf("expected 2 named exports, got %+v", ex.NamedExports)
	}
	if ex.NamedExports[1] != "baz" {
		t.Fatalf("expected aliased export name baz, got %v", ex.NamedExports)
	}
}

func TestParseExports_TypeOnlyClause(t *testing.T) {
	ex := ParseExports(`export type { Props, State };`)
	if len(ex.TypeExports) != 2 || len(ex.NamedExports) != 0 {
		t.Fatalf("unexpected split: %+v", ex)
	}
}

func TestParseExports_MixedClauseWithInlineType(t *testing.T) {
	ex := ParseExports(`export { foo, type Bar };`)
	if len(ex.NamedExports) != 1 || ex.NamedExports[0] != "foo" {
		t.Fatalf("expected foo as named export, got %+v", ex.NamedExports)
	}
	if len(ex.TypeExports) != 1 || ex.TypeExports[0] != "Bar" {
		t.Fatalf("expected Bar as type export, got %+v", ex.TypeExports)
	}
}

func TestParseExports_DeclExports(t *testing.T) {
	ex := ParseExports(`
		export const add = (a, b) => a + b;
		export function subtract(a, b) { return a - b; }
		export class Widget {}
	`)
	want := map[string]bool{"add": true, "subtract": true, "Widget": true}
	if len(ex.NamedExports) != len(want) {
		t.Fatalf("expected %d exports, got %+v", len(want), ex.NamedExports)
	}
	for _, n := range ex.NamedExports {
		if !want[n] {
			t.Errorf("unexpected export %q", n)
		}
	}
}

func TestParseExports_DefaultNamedFunction(t *testing.T) {
	ex := ParseExports(`export default function Widget() {}`)
	if !ex.HasDefaultExport || ex.DefaultName != "Widget" {
		t.Fatalf("unexpected: %+v", ex)
	}
}

func TestParseExports_DefaultIdentifier(t *testing.T) {
	ex := ParseExports(`
		function Widget() {}
		export default Widget;
	`)
	if !ex.HasDefaultExport || ex.DefaultName != "Widget" {
		t.Fatalf("unexpected: %+v", ex)
	}
}

func TestParseExports_DefaultAnonymous(t *testing.T) {
	ex := ParseExports(`export default { a: 1, b: 2 };`)
	if !ex.HasDefaultExport || ex.DefaultName != "" {
		t.Fatalf("expected anonymous default export, got %+v", ex)
	}
}

func TestExportsSymbol(t *testing.T) {
	ex := Exports{NamedExports: []string{"foo"}, TypeExports: []string{"Bar"}, HasDefaultExport: true, DefaultName: "Widget"}
	if !ex.ExportsSymbol("foo") || !ex.ExportsSymbol("Bar") || !ex.ExportsSymbol("Widget") {
		t.Fatal("expected all three symbols found")
	}
	if ex.ExportsSymbol("nonexistent") {
		t.Fatal("expected nonexistent symbol not found")
	}
}

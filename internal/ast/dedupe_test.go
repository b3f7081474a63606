package ast

import "testing"

func TestDedupeExportClauses_KeepsFirstOccurrence(t *testing.T) {
	src := "export { foo, bar };\n\nexport { foo, baz };\n"
	got := DedupeExportClauses(src)
	if got != "export { foo, bar };\n\nexport { baz };\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestDedupeExportClauses_EmptyClauseDeleted(t *testing.T) {
	src := "export { foo };\nexport { foo };\n"
	got := DedupeExportClauses(src)
	if got != "export { foo };\n\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestDedupeExportClauses_PreservesSourceAndQuote(t *testing.T) {
	src := `export { a, b } from "./x";` + "\n" + `export { a, c } from './y';`
	got := DedupeExportClauses(src)
	want := `export { a, b } from "./x";` + "\n" + `export { c } from './y';`
	if got != want {
		t.Fatalf("unexpected result: %q want %q", got, want)
	}
}

func TestDedupeExportClauses_CollapsesBlankLineRuns(t *testing.T) {
	src := "export { foo };\n\n\n\nexport { foo };\n"
	got := DedupeExportClauses(src)
	if got != "export { foo };\n\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestDedupeExportClauses_NoClausesUnchanged(t *testing.T) {
	src := "const x = 1;\n"
	if got := DedupeExportClauses(src); got != src {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestDedupeExportClauses_TypeOnlyPreserved(t *testing.T) {
	src := "export type { Foo };\nexport type { Foo, Bar };\n"
	got := DedupeExportClauses(src)
	want := "export type { Foo };\nexport type { Bar };\n"
	if got != want {
		t.Fatalf("unexpected result: %q want %q", got, want)
	}
}

package ast

import "testing"

func TestParseImports_NamedClause(t *testing.T) {
	imports := ParseImports(`import { foo, bar as baz } from './utils';`)
	if len(imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(imports))
	}
	imp := imports[0]
	if imp.Source != "./utils" {
		t.Fatalf("unexpected source: %q", imp.Source)
	}
	if len(imp.NamedImportDetails) != 2 {
		t.Fatalf("expected 2 named imports, got %+v", imp.NamedImportDetails)
	}
	if imp.NamedImportDetails[1].Name != "bar" || imp.NamedImportDetails[1].LocalName != "baz" {
		t.Fatalf("expected exported name bar aliased to baz, got %+v", imp.NamedImportDetails[1])
	}
}

func TestParseImports_DefaultAndNamespace(t *testing.T) {
	imports := ParseImports(`import Widget from './widget';
import * as utils from './utils';`)
	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(imports))
	}
	if !imports[0].HasDefaultImport {
		t.Fatal("expected default import detected")
	}
	if !imports[1].HasNamespaceImport {
		t.Fatal("expected namespace import detected")
	}
}

func TestParseImports_TypeOnly(t *testing.T) {
	imports := ParseImports(`import type { Props } from './types';`)
	if len(imports) != 1 || !imports[0].IsTypeOnly {
		t.Fatalf("expected type-only import, got %+v", imports)
	}
}

func TestParseImports_BareImport(t *testing.T) {
	imports := ParseImports(`import "./polyfills";`)
	if len(imports) != 1 || imports[0].Source != "./polyfills" {
		t.Fatalf("expected bare side-effect import, got %+v", imports)
	}
	if imports[0].HasDefaultImport || imports[0].HasNamespaceImport || len(imports[0].NamedImportDetails) != 0 {
		t.Fatalf("expected no bindings for side-effect import, got %+v", imports[0])
	}
}

func TestIsRelative(t *testing.T) {
	cases := map[string]bool{
		"./foo":  true,
		"../foo": true,
		"foo":    false,
		"@scope/foo": false,
	}
	for src, want := range cases {
		if got := IsRelative(src); got != want {
			t.Errorf("IsRelative(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestParseBareSource_Scoped(t *testing.T) {
	bs := ParseBareSource("@scope/name/sub/path")
	if bs.Scope != "@scope" || bs.Name != "name" || bs.Subpath != "sub/path" {
		t.Fatalf("unexpected parse: %+v", bs)
	}
}

func TestParseBareSource_Unscoped(t *testing.T) {
	bs := ParseBareSource("lodash/debounce")
	if bs.Scope != "" || bs.Name != "lodash" || bs.Subpath != "debounce" {
		t.Fatalf("unexpected parse: %+v", bs)
	}
}

package sourcemap

import "testing"

func strp(s string) *string { return &s }

func TestExtract_CountInvariant(t *testing.T) {
	m := &V3{
		Sources: []string{"webpack://proj/./src/a.ts", "node_modules/react/index.js", "webpack://proj/./src/b.ts"},
		SourcesContent: []*string{
			strp("export const a = 1;"),
			strp("module.exports = {};"),
			nil,
		},
	}
	res := Extract(m, nil)
	if err := res.Metadata.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
	if res.Metadata.ExtractedCount != 1 || res.Metadata.SkippedCount != 1 || res.Metadata.NullContentCount != 1 {
		t.Fatalf("got %+v", res.Metadata)
	}
	if res.Sources[0].Path != "src/a.ts" {
		t.Fatalf("expected normalized path src/a.ts, got %q", res.Sources[0].Path)
	}
}

func TestExtract_InternalPackageWhitelist(t *testing.T) {
	m := &V3{
		Sources:        []string{"node_modules/@myorg/widgets/index.js"},
		SourcesContent: []*string{strp("export default {};")},
	}
	res := Extract(m, map[string]bool{"@myorg/widgets": true})
	if res.Metadata.ExtractedCount != 1 || res.Metadata.SkippedCount != 0 {
		t.Fatalf("expected internal package to survive exclusion, got %+v", res.Metadata)
	}
}

func TestExtract_MissingSourcesContentIsNotFatal(t *testing.T) {
	m := &V3{Sources: []string{"a.js", "b.js"}}
	res := Extract(m, nil)
	if len(res.Sources) != 0 {
		t.Fatalf("expected empty result, got %+v", res.Sources)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "no sourcesContent" {
		t.Fatalf("expected 'no sourcesContent' error, got %+v", res.Errors)
	}
}

func TestParseV3_RejectsIndexMaps(t *testing.T) {
	_, err := ParseV3([]byte(`{"version":3,"sections":[{"offset":{"line":0,"column":0},"map":{}}]}`))
	if err == nil {
		t.Fatal("expected error for sections-form index map")
	}
}

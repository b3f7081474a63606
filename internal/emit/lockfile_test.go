package emit

import (
	"strings"
	"testing"

	"web2local/internal/reconstruct"
)

func TestMarshalUnmarshalLockFile_RoundTrips(t *testing.T) {
	lf := BuildLockFile(
		[]LockedPackage{{Name: "lodash", Version: "4.17.21", Similarity: 1, Strategy: "exact"}},
		[]reconstruct.Alias{{Name: "@/*", ResolvedPath: "./src/*", Confidence: reconstruct.ConfidenceExact}},
	)

	data, err := MarshalLockFile(lf)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := UnmarshalLockFile(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Version != lockFileVersion {
		t.Fatalf("expected version %d, got %d", lockFileVersion, got.Version)
	}
	if len(got.Packages) != 1 || got.Packages[0].Name != "lodash" {
		t.Fatalf("unexpected packages: %+v", got.Packages)
	}
	if len(got.Aliases) != 1 || got.Aliases[0].ResolvedPath != "./src/*" {
		t.Fatalf("unexpected aliases: %+v", got.Aliases)
	}
}

func TestMarshalLockFile_OmitsEmptyAliases(t *testing.T) {
	lf := BuildLockFile([]LockedPackage{{Name: "foo", Version: "1.0.0"}}, nil)
	data, err := MarshalLockFile(lf)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) == "" {
		t.Fatalf("expected non-empty output")
	}
	if strings.Contains(string(data), "aliases") {
		t.Fatalf("expected empty aliases omitted, got %q", data)
	}
}

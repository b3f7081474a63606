package emit

import (
	"testing"

	"web2local/internal/reconstruct"
)

func TestDetectFramework_PicksFirstMatchingDependency(t *testing.T) {
	fw := DetectFramework(map[string]bool{"svelte": true, "react": true})
	if fw != "svelte" {
		t.Fatalf("expected svelte to win by declared precedence, got %q", fw)
	}
}

func TestDetectFramework_NoneFoundReturnsEmpty(t *testing.T) {
	if fw := DetectFramework(map[string]bool{"lodash": true}); fw != "" {
		t.Fatalf("expected empty framework, got %q", fw)
	}
}

func TestBuildConfig_DegradesWithWarningOnUnknownFramework(t *testing.T) {
	cfg := BuildConfig(map[string]bool{}, nil, nil, nil, nil, false)
	if cfg.Framework != "" || cfg.Warning == "" {
		t.Fatalf("expected degraded vanilla config with warning, got %+v", cfg)
	}
}

func TestBuildConfig_InjectsProductionDefaults(t *testing.T) {
	cfg := BuildConfig(map[string]bool{"react": true}, nil, map[string]string{}, nil, nil, false)
	if cfg.Define["process.env.NODE_ENV"] != `"production"` {
		t.Fatalf("expected production NODE_ENV default, got %+v", cfg.Define)
	}
}

func TestBuildConfig_PreservesAliasOrder(t *testing.T) {
	aliases := []reconstruct.Alias{{Name: "foo/bar"}, {Name: "foo"}}
	cfg := BuildConfig(map[string]bool{}, aliases, nil, nil, nil, false)
	if len(cfg.Aliases) != 2 || cfg.Aliases[0].Name != "foo/bar" {
		t.Fatalf("expected caller-supplied alias order preserved, got %+v", cfg.Aliases)
	}
}

func TestConfig_SortedDefineKeys(t *testing.T) {
	cfg := BuildConfig(map[string]bool{}, nil, map[string]string{"b": "1", "a": "2"}, nil, nil, false)
	keys := cfg.SortedDefineKeys()
	idxA, idxB := indexOf(keys, "a"), indexOf(keys, "b")
	if idxA < 0 || idxB < 0 || idxA > idxB {
		t.Fatalf("expected sorted keys, got %+v", keys)
	}
}

func indexOf(list []string, target string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}

// Package emit assembles the bundler configuration and its supporting
// artifacts (env defines, virtual-module stubs, workspace manifest) that let
// the reconstructed tree actually build.
package emit

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

// LoadEnvDefines reads the Vite-style `.env` priority chain — `.env`,
// `.env.local`, `.env.[mode]`, `.env.[mode].local` — rooted at basePath, and
// returns esbuild `define` entries for every variable matching prefix (the
// usual case is "VITE_"). Later files in the chain override earlier ones.
// A missing file in the chain is not an error; the chain simply contributes
// nothing from that step.
func LoadEnvDefines(basePath, mode, prefix string) (map[string]string, error) {
	variants := []string{
		basePath,
		basePath + ".local",
		basePath + "." + mode,
		basePath + "." + mode + ".local",
	}

	result := make(map[string]string)
	for _, variant := range variants {
		vars, err := godotenv.Read(variant)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", variant, err)
		}
		for key, value := range vars {
			if !hasPrefix(key, prefix) {
				continue
			}
			result["import.meta.env."+key] = fmt.Sprintf("%q", value)
		}
	}
	return result, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// MergeEnvDefines fills in the Vite-standard env defines a project expects
// to exist even if no .env file set them, without overriding anything the
// caller already populated.
func MergeEnvDefines(define map[string]string, mode string) {
	isDev := mode == "development"
	defaults := map[string]string{
		"process.env.NODE_ENV":     fmt.Sprintf("%q", mode),
		"import.meta.env.MODE":     fmt.Sprintf("%q", mode),
		"import.meta.env.DEV":      fmt.Sprintf("%t", isDev),
		"import.meta.env.PROD":     fmt.Sprintf("%t", !isDev),
		"import.meta.env.BASE_URL": `"/"`,
		"import.meta.env.SSR":      "false",
	}
	for k, v := range defaults {
		if _, ok := define[k]; !ok {
			define[k] = v
		}
	}
}

// DetectedEnvVar is one `process.env.X` / `import.meta.env.X` access found
// in the recovered sources that isn't otherwise accounted for.
type DetectedEnvVar struct {
	Key          string // e.g. "API_URL"; for a nested process.env.Y.foo access only the first key, "Y", is recorded
	FromNodeEnv  bool   // process.env.X as opposed to import.meta.env.X
}

// envAccessRe matches a `process.env.X` or `import.meta.env.X` property
// access, capturing which root and which key.
var envAccessRe = regexp.MustCompile(`\b(process\.env|import\.meta\.env)\.([A-Za-z_$][A-Za-z0-9_$]*)`)

// DetectEnvVars scans source text for process.env.X / import.meta.env.X
// accesses, returning one DetectedEnvVar per distinct (root, key) pair in
// first-seen order.
func DetectEnvVars(source string) []DetectedEnvVar {
	seen := make(map[string]bool)
	var out []DetectedEnvVar
	for _, m := range envAccessRe.FindAllStringSubmatch(source, -1) {
		fromNodeEnv := m[1] == "process.env"
		dedupeKey := m[1] + "." + m[2]
		if seen[dedupeKey] {
			continue
		}
		seen[dedupeKey] = true
		out = append(out, DetectedEnvVar{Key: m[2], FromNodeEnv: fromNodeEnv})
	}
	return out
}

// BuildDetectedDefines turns detected env accesses into esbuild define
// entries that read from the merged defines with an empty-string fallback,
// excluding NODE_ENV (already covered by MergeEnvDefines's own default).
func BuildDetectedDefines(vars []DetectedEnvVar, merged map[string]string) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		if v.FromNodeEnv && v.Key == "NODE_ENV" {
			continue
		}
		prefix := "import.meta.env."
		if v.FromNodeEnv {
			prefix = "process.env."
		}
		key := prefix + v.Key
		if existing, ok := merged[key]; ok {
			out[key] = existing
			continue
		}
		out[key] = `""`
	}
	return out
}

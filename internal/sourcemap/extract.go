package sourcemap

import (
	"fmt"
	"path"
	"strings"
)

// ExtractedSource is a single recovered {path, content} pair.
type ExtractedSource struct {
	Path         string
	Content      string
	OriginalPath string
}

// ExtractMetadata summarizes an extraction run. Invariant:
// ExtractedCount + SkippedCount + NullContentCount == len(Sources) of the
// input map.
type ExtractMetadata struct {
	TotalSources     int
	ExtractedCount   int
	SkippedCount     int
	NullContentCount int
	SourceRoot       string
}

// ExtractResult is the output of materializing a source map's sourcesContent.
type ExtractResult struct {
	Sources  []ExtractedSource
	Metadata ExtractMetadata
	Errors   []string
}

// knownBundlerSchemes are stripped from source paths along with their
// authority component, e.g. "webpack://project/./src/x.ts".
var knownBundlerSchemes = []string{"webpack://", "vite://", "rollup://", "parcel://", "esbuild://"}

// defaultExcludePatterns is the default exclusion set.
var defaultExcludePatterns = []string{"node_modules/"}

// Extract materializes {path, content} tuples from a validated source map's
// sourcesContent, normalizing paths and applying the node_modules exclusion
// rule (unless the first path segment is in internalPackages).
//
// A missing or empty sourcesContent array is not fatal: it produces a
// single explanatory error and an empty result, with every source counted
// as null content — this function never fabricates sources. Null entries
// inside a present array are counted as null content without an error.
func Extract(m *V3, internalPackages map[string]bool) ExtractResult {
	total := len(m.Sources)
	if len(m.SourcesContent) == 0 {
		return ExtractResult{
			Metadata: ExtractMetadata{TotalSources: total, NullContentCount: total, SourceRoot: m.SourceRoot},
			Errors:   []string{"no sourcesContent"},
		}
	}

	result := ExtractResult{Metadata: ExtractMetadata{TotalSources: total, SourceRoot: m.SourceRoot}}

	for i, src := range m.Sources {
		var content *string
		if i < len(m.SourcesContent) {
			content = m.SourcesContent[i]
		}
		if content == nil {
			result.Metadata.NullContentCount++
			continue
		}

		normalized := normalizeSourcePath(src, m.SourceRoot)
		if isExcluded(normalized, internalPackages) {
			result.Metadata.SkippedCount++
			continue
		}

		result.Sources = append(result.Sources, ExtractedSource{
			Path:         normalized,
			Content:      *content,
			OriginalPath: src,
		})
		result.Metadata.ExtractedCount++
	}

	return result
}

func normalizeSourcePath(src, sourceRoot string) string {
	p := src
	for _, scheme := range knownBundlerSchemes {
		if strings.HasPrefix(p, scheme) {
			rest := p[len(scheme):]
			// Drop the authority component (up to the next "/").
			if idx := strings.IndexByte(rest, '/'); idx >= 0 {
				p = rest[idx+1:]
			} else {
				p = ""
			}
			break
		}
	}
	p = strings.TrimPrefix(p, "./")

	if sourceRoot != "" {
		p = path.Join(strings.TrimSuffix(sourceRoot, "/"), p)
	}

	return path.Clean(p)
}

// isExcluded reports whether a normalized path matches a default exclusion
// pattern and its leading package segment isn't whitelisted as internal.
func isExcluded(normalized string, internalPackages map[string]bool) bool {
	for _, pat := range defaultExcludePatterns {
		if !strings.Contains(normalized, pat) {
			continue
		}
		firstSeg := firstPathSegmentAfter(normalized, pat)
		if internalPackages != nil && internalPackages[firstSeg] {
			return false
		}
		return true
	}
	return false
}

// firstPathSegmentAfter returns the path segment immediately following the
// last occurrence of pat (e.g. "node_modules/") — "node_modules/@scope/pkg/x.js"
// with pat "node_modules/" yields "@scope/pkg".
func firstPathSegmentAfter(normalized, pat string) string {
	idx := strings.LastIndex(normalized, pat)
	if idx < 0 {
		return ""
	}
	rest := normalized[idx+len(pat):]
	parts := strings.SplitN(rest, "/", 3)
	if strings.HasPrefix(rest, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return ""
}

// CheckInvariant verifies the ExtractedCount+SkippedCount+NullContentCount
// == TotalSources invariant. Exposed for tests/callers that
// want to assert it directly rather than trust construction.
func (m ExtractMetadata) CheckInvariant() error {
	sum := m.ExtractedCount + m.SkippedCount + m.NullContentCount
	if sum != m.TotalSources {
		return fmt.Errorf("extraction invariant violated: %d+%d+%d != %d", m.ExtractedCount, m.SkippedCount, m.NullContentCount, m.TotalSources)
	}
	return nil
}

// Package fingerprint computes content-identity signals (hashes,
// signatures, minification heuristics) used to match extracted code against
// published registry package versions, and the layered similarity engine
// (C8) that scores candidate matches.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// ContentHash returns the raw-bytes md5 hash of content, hex-encoded.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NormalizedHash hashes content after removing comments, collapsing runs of
// whitespace, and normalizing line endings — stable across cosmetic
// reformatting, e.g. minifier-vs-source whitespace changes.
func NormalizedHash(content string) string {
	sum := md5.Sum([]byte(Normalize(content)))
	return hex.EncodeToString(sum[:])
}

// Normalize strips comments, collapses whitespace runs to a single space,
// and normalizes CRLF/CR to LF. It is intentionally conservative: it does
// not attempt full JS tokenization, only comment stripping with a
// string-literal-aware scanner so that "//" or "/*" inside a string isn't
// mistaken for a comment.
func Normalize(content string) string {
	stripped := stripComments(content)
	stripped = strings.ReplaceAll(stripped, "\r\n", "\n")
	stripped = strings.ReplaceAll(stripped, "\r", "\n")

	var b strings.Builder
	inSpace := false
	for _, r := range stripped {
		if r == ' ' || r == '\t' || r == '\n' {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// stripComments removes // line comments and /* */ block comments while
// respecting single/double/backtick string literals, so that comment-like
// sequences inside strings are preserved verbatim.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for j < n && s[j] != c {
				if s[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				j++
			}
			if j < n {
				j++
			}
			b.WriteString(s[i:j])
			i = j
		case c == '/' && i+1 < n && s[i+1] == '/':
			j := i + 2
			for j < n && s[j] != '\n' {
				j++
			}
			b.WriteByte(' ')
			i = j
		case c == '/' && i+1 < n && s[i+1] == '*':
			j := i + 2
			end := strings.Index(s[j:], "*/")
			if end < 0 {
				i = n
			} else {
				i = j + end + 2
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

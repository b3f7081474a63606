package sourcemap

import "strings"

// ScanTrailingSourceMappingURL implements the ECMA-426 §11.1.2 trailing-
// comment search as a small state machine (not a regex — the matching rules
// around "trailing position" and "last occurrence wins" are easiest to get
// bit-exact as an explicit scanner).
//
// Rules enforced:
//   - JS: "//# sourceMappingURL=" or legacy "//@ sourceMappingURL=".
//   - CSS: "/*# sourceMappingURL=... */" or legacy "/*@ ... */".
//   - Only URLs in trailing position count: after a candidate comment,
//     only whitespace and further comments may follow; any other byte
//     resets the candidate to "not found".
//   - Multiple valid trailing occurrences: the last one wins.
//   - All Unicode line terminators are treated as line breaks: \n, \r,
//     \r\n, U+2028 (LINE SEPARATOR), U+2029 (PARAGRAPH SEPARATOR).
//   - An unclosed multi-line comment at EOF is still treated as a comment
//     (so trailing-position tracking is not reset by it).
func ScanTrailingSourceMappingURL(content []byte, isCSS bool) (string, bool) {
	s := string(content)
	n := len(s)
	i := 0
	var candidate string
	haveCandidate := false

	isLineTerm := func(r byte, idx int) (width int, is bool) {
		switch r {
		case '\n':
			return 1, true
		case '\r':
			if idx+1 < n && s[idx+1] == '\n' {
				return 2, true
			}
			return 1, true
		}
		// U+2028 / U+2029 encode as 0xE2 0x80 0xA8 / 0xE2 0x80 0xA9 in UTF-8.
		if idx+2 < n && r == 0xE2 && s[idx+1] == 0x80 && (s[idx+2] == 0xA8 || s[idx+2] == 0xA9) {
			return 3, true
		}
		return 0, false
	}

	for i < n {
		c := s[i]

		if w, ok := isLineTerm(c, i); ok {
			i += w
			continue
		}

		if c == ' ' || c == '\t' {
			i++
			continue
		}

		// Line comment: "//..." — only meaningful for JS.
		if !isCSS && c == '/' && i+1 < n && s[i+1] == '/' {
			lineEnd := i + 2
			for lineEnd < n {
				if w, ok := isLineTerm(s[lineEnd], lineEnd); ok {
					_ = w
					break
				}
				lineEnd++
			}
			line := s[i+2 : lineEnd]
			if u, ok := extractMarker(line, "# sourceMappingURL=", "@ sourceMappingURL="); ok {
				candidate = u
				haveCandidate = true
			}
			i = lineEnd
			continue
		}

		// Block comment: "/*...*/" — used by both JS and CSS.
		if c == '/' && i+1 < n && s[i+1] == '*' {
			closeIdx := strings.Index(s[i+2:], "*/")
			var body string
			var next int
			if closeIdx < 0 {
				// Unclosed comment at EOF: still a comment, consume to end.
				body = s[i+2:]
				next = n
			} else {
				body = s[i+2 : i+2+closeIdx]
				next = i + 2 + closeIdx + 2
			}
			if u, ok := extractMarker(body, "# sourceMappingURL=", "@ sourceMappingURL="); ok {
				candidate = u
				haveCandidate = true
			}
			i = next
			continue
		}

		// Any other byte: code follows, invalidate the running candidate.
		candidate = ""
		haveCandidate = false
		i++
	}

	if haveCandidate {
		return candidate, true
	}
	return "", false
}

// extractMarker looks for either marker prefix (possibly preceded by
// whitespace) within a comment body and returns the URL up to trailing
// whitespace, if present.
func extractMarker(body string, markers ...string) (string, bool) {
	trimmed := strings.TrimLeft(body, " \t")
	for _, m := range markers {
		if strings.HasPrefix(trimmed, m) {
			rest := strings.TrimSpace(trimmed[len(m):])
			if rest == "" {
				return "", false
			}
			return rest, true
		}
	}
	return "", false
}

package ast

import (
	"regexp"
	"strings"
)

// exportClauseSpanRe matches an entire `export [type] { ... } [from '...'];`
// statement, capturing the type-only modifier, the clause body, and an
// optional source specifier with its original quote character.
var exportClauseSpanRe = regexp.MustCompile(`export\s+(type\s+)?\{([^}]*)\}(?:\s+from\s+(['"])([^'"]+)(['"]))?\s*;?`)

var threeOrMoreBlankLinesRe = regexp.MustCompile(`\n{3,}`)

// DedupeExportClauses rebuilds every `export { a, b, c }` clause in source,
// keeping only the first occurrence of each identifier across the whole
// file. Clauses that become empty after dedup are deleted entirely;
// surviving clauses are re-emitted with their original quote character,
// type-only modifier, and source specifier. Edits are applied in reverse
// document order so earlier byte offsets stay valid, then runs of three or
// more consecutive newlines are collapsed to two.
func DedupeExportClauses(source string) string {
	matches := exportClauseSpanRe.FindAllStringSubmatchIndex(source, -1)
	if len(matches) == 0 {
		return source
	}

	seen := make(map[string]bool)
	type edit struct {
		start, end int
		replacement string
	}
	var edits []edit

	for _, m := range matches {
		start, end := m[0], m[1]
		isTypeOnly := m[2] != -1
		clauseBody := source[m[4]:m[5]]
		quote := "'"
		if m[6] != -1 {
			quote = source[m[6]:m[7]]
		}
		var fromSource string
		hasFrom := m[8] != -1
		if hasFrom {
			fromSource = source[m[8]:m[9]]
		}

		kept := dedupeClauseItems(clauseBody, seen)

		var replacement string
		if len(kept) > 0 {
			replacement = rebuildExportClause(isTypeOnly, kept, hasFrom, quote, fromSource)
		}
		edits = append(edits, edit{start: start, end: end, replacement: replacement})
	}

	out := source
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		out = out[:e.start] + e.replacement + out[e.end:]
	}

	return threeOrMoreBlankLinesRe.ReplaceAllString(out, "\n\n")
}

// dedupeClauseItems splits a clause body on commas and keeps the first
// occurrence of each identifier (by its local/exported name, ignoring `as`
// aliasing differences would be incorrect — dedup keys on the full item
// text's identifier component) across the whole file via the shared seen set.
func dedupeClauseItems(body string, seen map[string]bool) []string {
	var kept []string
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := identifierKey(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, item)
	}
	return kept
}

// identifierKey extracts the identifier a clause item binds in this file:
// for "a as b" that's b (the exported name); for "a" that's a.
func identifierKey(item string) string {
	item = strings.TrimPrefix(item, "type ")
	item = strings.TrimSpace(item)
	if idx := strings.Index(item, " as "); idx >= 0 {
		return strings.TrimSpace(item[idx+4:])
	}
	return item
}

func rebuildExportClause(isTypeOnly bool, items []string, hasFrom bool, quote, fromSource string) string {
	var sb strings.Builder
	sb.WriteString("export ")
	if isTypeOnly {
		sb.WriteString("type ")
	}
	sb.WriteString("{ ")
	sb.WriteString(strings.Join(items, ", "))
	sb.WriteString(" }")
	if hasFrom {
		sb.WriteString(" from ")
		sb.WriteString(quote)
		sb.WriteString(fromSource)
		sb.WriteString(quote)
	}
	sb.WriteString(";")
	return sb.String()
}

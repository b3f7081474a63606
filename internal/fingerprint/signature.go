package fingerprint

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// controlFlowKeywords are the structural tokens a signature tracks; these
// survive identifier renaming (minification) because minifiers never
// rename reserved words.
var controlFlowKeywords = []string{
	"if", "else", "for", "while", "do", "switch", "case", "try", "catch",
	"finally", "return", "throw", "function", "class", "new", "typeof",
	"instanceof", "yield", "await", "async",
}

var (
	identifierRe = regexp.MustCompile(`\b[A-Za-z_$][A-Za-z0-9_$]*\s*\(`)
	stringLitRe  = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)
)

// Signature extracts a pipe-joined sequence of structural tokens from code
// shape: control-flow keyword counts, a call-arity histogram bucket, and
// string-literal length categories. Two files implementing different
// semantics tend to diverge here even after minification; two files that
// are the same code under different variable names tend to match.
func Signature(content string) string {
	code := stripComments(content)

	var tokens []string

	for _, kw := range controlFlowKeywords {
		count := strings.Count(code, kw)
		if count > 0 {
			tokens = append(tokens, kw+":"+strconv.Itoa(bucket(count)))
		}
	}

	arities := callArityHistogram(code)
	var arityKeys []int
	for a := range arities {
		arityKeys = append(arityKeys, a)
	}
	sort.Ints(arityKeys)
	for _, a := range arityKeys {
		tokens = append(tokens, "call"+strconv.Itoa(a)+":"+strconv.Itoa(bucket(arities[a])))
	}

	litCategories := stringLiteralCategories(code)
	var catKeys []string
	for k := range litCategories {
		catKeys = append(catKeys, k)
	}
	sort.Strings(catKeys)
	for _, k := range catKeys {
		tokens = append(tokens, "lit"+k+":"+strconv.Itoa(bucket(litCategories[k])))
	}

	return strings.Join(tokens, "|")
}

// bucket log-scales a count into a small number of buckets so that two
// files differing by a handful of occurrences still produce equal tokens,
// while large differences remain visible.
func bucket(n int) int {
	switch {
	case n <= 2:
		return n
	case n <= 5:
		return 3
	case n <= 10:
		return 4
	case n <= 25:
		return 5
	case n <= 100:
		return 6
	default:
		return 7
	}
}

// callArityHistogram counts call sites by argument count (commas+1 inside
// the outermost parens of a `name(...)` call), ignoring nested parens by a
// simple depth counter. This is intentionally approximate: it is a
// similarity signal, not a parser.
func callArityHistogram(code string) map[int]int {
	hist := make(map[int]int)
	for _, loc := range identifierRe.FindAllStringIndex(code, -1) {
		start := loc[1] // just after '('
		depth := 1
		commas := 0
		empty := true
		i := start
		for i < len(code) && depth > 0 {
			switch code[i] {
			case '(':
				depth++
			case ')':
				depth--
			case ',':
				if depth == 1 {
					commas++
				}
			default:
				if !isSpace(code[i]) {
					empty = false
				}
			}
			i++
		}
		if depth != 0 {
			continue // unbalanced, likely ran past a region we mis-scanned
		}
		arity := commas + 1
		if empty {
			arity = 0
		}
		hist[arity]++
	}
	return hist
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// stringLiteralCategories buckets string literals by length category so
// the signature captures "how many short/medium/long strings" without
// embedding their actual content (which minifiers can still alter via
// concatenation).
func stringLiteralCategories(code string) map[string]int {
	cats := map[string]int{}
	for _, m := range stringLitRe.FindAllString(code, -1) {
		l := len(m) - 2 // minus quotes
		switch {
		case l == 0:
			cats["empty"]++
		case l <= 6:
			cats["short"]++
		case l <= 20:
			cats["medium"]++
		default:
			cats["long"]++
		}
	}
	return cats
}

// JaccardTokens computes the Jaccard similarity between two pipe-joined
// signatures treated as token sets.
func JaccardTokens(a, b string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(s string) map[string]bool {
	out := make(map[string]bool)
	if s == "" {
		return out
	}
	for _, tok := range strings.Split(s, "|") {
		out[tok] = true
	}
	return out
}

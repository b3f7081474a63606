package fingerprint

import (
	"regexp"
	"strings"
)

// IsMinified applies content heuristics: average line
// length, whitespace ratio, single-char-variable density, semicolon
// density, and comment presence. Any strong signal marks content minified.
func IsMinified(content string) bool {
	if len(content) == 0 {
		return false
	}

	lines := strings.Split(content, "\n")
	nonEmpty := 0
	totalLen := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		nonEmpty++
		totalLen += len(l)
	}
	avgLineLen := 0.0
	if nonEmpty > 0 {
		avgLineLen = float64(totalLen) / float64(nonEmpty)
	}
	if avgLineLen > 500 {
		return true
	}

	whitespace := 0
	for _, c := range content {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			whitespace++
		}
	}
	whitespaceRatio := float64(whitespace) / float64(len([]rune(content)))
	if whitespaceRatio < 0.03 && len(content) > 200 {
		return true
	}

	singleCharVars := singleCharVarRe.FindAllString(content, -1)
	if len(content) > 500 && len(singleCharVars) > len(content)/80 {
		return true
	}

	semicolons := strings.Count(content, ";")
	newlines := strings.Count(content, "\n") + 1
	if newlines > 0 && float64(semicolons)/float64(newlines) > 3 {
		return true
	}

	if !hasComment(content) && len(content) > 1000 && avgLineLen > 150 {
		return true
	}

	return false
}

var singleCharVarRe = regexp.MustCompile(`\b(?:var|let|const)\s+[a-zA-Z](?:[,;=)])`)

func hasComment(content string) bool {
	return strings.Contains(content, "//") || strings.Contains(content, "/*")
}

var (
	stringLit6Re = regexp.MustCompile(`"(?:[^"\\]{6,}|(?:[^"\\]|\\.)*)"|'(?:[^'\\]{6,}|(?:[^'\\]|\\.)*)'`)
	callPatternRe = regexp.MustCompile(`\b([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^()]*)\)`)
	numericConstRe = regexp.MustCompile(`\b\d{3,}(?:\.\d+)?\b|\b\d+\.\d+\b`)
)

// MinifiedFeatures holds the four feature sets compared for minification-
// robust similarity.
type MinifiedFeatures struct {
	StringLiterals map[string]bool // literals >= 6 chars
	CallPatterns   map[string]bool // "name:arity"
	NumericConsts  map[string]bool
	Length         int
}

// ExtractMinifiedFeatures computes the feature sets used by the minified
// comparison strategy.
func ExtractMinifiedFeatures(content string) MinifiedFeatures {
	f := MinifiedFeatures{
		StringLiterals: map[string]bool{},
		CallPatterns:   map[string]bool{},
		NumericConsts:  map[string]bool{},
		Length:         len(content),
	}

	for _, m := range stringLitRe.FindAllString(content, -1) {
		if len(m) >= 8 { // 6 chars + 2 quotes
			f.StringLiterals[m] = true
		}
	}

	for _, m := range callPatternRe.FindAllStringSubmatch(content, -1) {
		name := m[1]
		args := strings.TrimSpace(m[2])
		arity := 0
		if args != "" {
			arity = strings.Count(args, ",") + 1
		}
		f.CallPatterns[name+":"+itoa(arity)] = true
	}

	for _, m := range numericConstRe.FindAllString(content, -1) {
		f.NumericConsts[m] = true
	}

	return f
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func jaccardSet[T comparable](a, b map[T]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

package fingerprint

// Fingerprint is the set of content-identity signals computed for either an
// extracted file or a candidate registry file (content
// Fingerprint, minus the cache envelope fields).
type Fingerprint struct {
	ContentHash    string
	NormalizedHash string
	Signature      string
	Content        string
	ContentLength  int
	IsMinified     bool
}

// NewFingerprint computes a Fingerprint from raw file content.
func NewFingerprint(content string) Fingerprint {
	return Fingerprint{
		ContentHash:    ContentHash(content),
		NormalizedHash: NormalizedHash(content),
		Signature:      Signature(content),
		Content:        content,
		ContentLength:  len(content),
		IsMinified:     IsMinified(content),
	}
}

// Confidence buckets a similarity score for reporting.
type Confidence string

const (
	ConfidenceExact  Confidence = "exact"
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = ""
)

// Strategy names a similarity rule for reporting which one fired.
type Strategy string

const (
	StrategyExactHash        Strategy = "exact_hash"
	StrategyRawContentHash   Strategy = "raw_content_hash"
	StrategySignatureJaccard Strategy = "signature_jaccard"
	StrategyLengthFallback   Strategy = "length_fallback"
	StrategyMinifiedFeatures Strategy = "minified_features"
	StrategyStructural       Strategy = "structural"
	StrategyMultiFileAgg     Strategy = "multi_file_aggregate"
)

// ScoredMatch is the result of comparing one extracted fingerprint against
// one candidate fingerprint.
type ScoredMatch struct {
	Similarity float64
	Strategy   Strategy
	Confidence Confidence
}

// ConfidenceFor maps a similarity score to a reporting confidence bucket.
func ConfidenceFor(similarity float64) Confidence {
	switch {
	case similarity >= 0.95:
		return ConfidenceExact
	case similarity >= 0.9:
		return ConfidenceHigh
	case similarity >= 0.8:
		return ConfidenceMedium
	case similarity >= 0.7:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Compare runs the layered single-file similarity strategies
// §4.8 against one extracted/candidate pair, first rule that applies wins.
func Compare(extracted, candidate Fingerprint) ScoredMatch {
	if extracted.Content == "" && candidate.Content == "" {
		return ScoredMatch{Similarity: 1.0, Strategy: StrategyExactHash, Confidence: ConfidenceExact}
	}
	if (extracted.Content == "") != (candidate.Content == "") {
		return ScoredMatch{Similarity: 0, Strategy: StrategyLengthFallback, Confidence: ConfidenceNone}
	}

	if extracted.NormalizedHash == candidate.NormalizedHash {
		return ScoredMatch{Similarity: 1.00, Strategy: StrategyExactHash, Confidence: ConfidenceExact}
	}
	if extracted.ContentHash == candidate.ContentHash {
		return ScoredMatch{Similarity: 0.99, Strategy: StrategyRawContentHash, Confidence: ConfidenceExact}
	}

	best := compareSignatureAndLength(extracted, candidate)

	if (extracted.IsMinified || candidate.IsMinified || best.Similarity < 0.9) {
		minified := compareMinifiedFeatures(extracted, candidate)
		if minified.Similarity > best.Similarity {
			best = minified
		}
	}

	best.Confidence = ConfidenceFor(best.Similarity)
	return best
}

func compareSignatureAndLength(extracted, candidate Fingerprint) ScoredMatch {
	jac := JaccardTokens(extracted.Signature, candidate.Signature)
	switch {
	case jac >= 0.8:
		return ScoredMatch{Similarity: scaleLinear(jac, 0.8, 1.0, 0.85, 0.95), Strategy: StrategySignatureJaccard}
	case jac >= 0.5:
		return ScoredMatch{Similarity: scaleLinear(jac, 0.5, 0.8, 0.70, 0.85), Strategy: StrategySignatureJaccard}
	}

	return lengthFallback(extracted.ContentLength, candidate.ContentLength)
}

func lengthFallback(lenA, lenB int) ScoredMatch {
	if lenA == 0 || lenB == 0 {
		return ScoredMatch{Similarity: 0, Strategy: StrategyLengthFallback}
	}
	min, max := lenA, lenB
	if min > max {
		min, max = max, min
	}
	ratio := float64(min) / float64(max)
	if ratio < 0.1 {
		return ScoredMatch{Similarity: ratio * 0.3, Strategy: StrategyLengthFallback}
	}
	return ScoredMatch{Similarity: ratio * 0.5, Strategy: StrategyLengthFallback}
}

// scaleLinear maps x from [inLo,inHi] to [outLo,outHi], clamping x to range.
func scaleLinear(x, inLo, inHi, outLo, outHi float64) float64 {
	if x < inLo {
		x = inLo
	}
	if x > inHi {
		x = inHi
	}
	t := (x - inLo) / (inHi - inLo)
	return outLo + t*(outHi-outLo)
}

// compareMinifiedFeatures runs the weighted feature-Jaccard strategy for
// minification-robust comparison: string literals (0.35),
// call patterns (0.35), numeric constants (0.15), length ratio (0.15), plus
// a 0.10 bonus when both string-literal and call-pattern Jaccard exceed 0.5.
func compareMinifiedFeatures(extracted, candidate Fingerprint) ScoredMatch {
	fa := ExtractMinifiedFeatures(extracted.Content)
	fb := ExtractMinifiedFeatures(candidate.Content)

	strJac := jaccardSet(fa.StringLiterals, fb.StringLiterals)
	callJac := jaccardSet(fa.CallPatterns, fb.CallPatterns)
	numJac := jaccardSet(fa.NumericConsts, fb.NumericConsts)

	lengthScore := lengthRatio(fa.Length, fb.Length)

	score := strJac*0.35 + callJac*0.35 + numJac*0.15 + lengthScore*0.15
	if strJac > 0.5 && callJac > 0.5 {
		score += 0.10
	}
	if score > 1.0 {
		score = 1.0
	}
	return ScoredMatch{Similarity: score, Strategy: StrategyMinifiedFeatures}
}

func lengthRatio(a, b int) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	min, max := a, b
	if min > max {
		min, max = max, min
	}
	return float64(min) / float64(max)
}

// AggregateCompare computes the minified-feature strategy over the union of
// features across all recovered files for a multi-file package, used when
// individual-file matches fail (the "aggregate" variant).
func AggregateCompare(extractedFiles, candidateFiles []Fingerprint) ScoredMatch {
	fa := unionFeatures(extractedFiles)
	fb := unionFeatures(candidateFiles)

	strJac := jaccardSet(fa.StringLiterals, fb.StringLiterals)
	callJac := jaccardSet(fa.CallPatterns, fb.CallPatterns)
	numJac := jaccardSet(fa.NumericConsts, fb.NumericConsts)
	lengthScore := lengthRatio(fa.Length, fb.Length)

	score := strJac*0.35 + callJac*0.35 + numJac*0.15 + lengthScore*0.15
	if strJac > 0.5 && callJac > 0.5 {
		score += 0.10
	}
	if score > 1.0 {
		score = 1.0
	}
	return ScoredMatch{Similarity: score, Strategy: StrategyMultiFileAgg, Confidence: ConfidenceFor(score)}
}

func unionFeatures(files []Fingerprint) MinifiedFeatures {
	out := MinifiedFeatures{StringLiterals: map[string]bool{}, CallPatterns: map[string]bool{}, NumericConsts: map[string]bool{}}
	for _, fp := range files {
		f := ExtractMinifiedFeatures(fp.Content)
		for k := range f.StringLiterals {
			out.StringLiterals[k] = true
		}
		for k := range f.CallPatterns {
			out.CallPatterns[k] = true
		}
		for k := range f.NumericConsts {
			out.NumericConsts[k] = true
		}
		out.Length += f.Length
	}
	return out
}

// StructuralCompare compares the set of normalized file basenames between
// the extracted tree and a candidate version's published file list, used
// as a last resort for multi-file packages whose per-file content doesn't
// match (the "structural" variant). Public files are weighted 0.6,
// underscore-prefixed internal files 0.4, plus a boost if >=70% of
// extracted files appear in the candidate's file list.
func StructuralCompare(extractedBasenames, candidateBasenames []string) ScoredMatch {
	candSet := make(map[string]bool, len(candidateBasenames))
	for _, c := range candidateBasenames {
		candSet[c] = true
	}

	var publicTotal, publicHit, internalTotal, internalHit, presentCount int
	for _, name := range extractedBasenames {
		isInternal := len(name) > 0 && name[0] == '_'
		hit := candSet[name]
		if hit {
			presentCount++
		}
		if isInternal {
			internalTotal++
			if hit {
				internalHit++
			}
		} else {
			publicTotal++
			if hit {
				publicHit++
			}
		}
	}

	var publicScore, internalScore float64
	if publicTotal > 0 {
		publicScore = float64(publicHit) / float64(publicTotal)
	}
	if internalTotal > 0 {
		internalScore = float64(internalHit) / float64(internalTotal)
	}

	score := publicScore*0.6 + internalScore*0.4

	if len(extractedBasenames) > 0 {
		coverage := float64(presentCount) / float64(len(extractedBasenames))
		if coverage >= 0.7 {
			score += 0.1
		}
	}
	if score > 1.0 {
		score = 1.0
	}

	return ScoredMatch{Similarity: score, Strategy: StrategyStructural, Confidence: ConfidenceFor(score)}
}

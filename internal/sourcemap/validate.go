package sourcemap

import "fmt"

// Error codes for mapping validation, per ECMA-426.
const (
	CodeInvalidVLQ              = "INVALID_VLQ"
	CodeInvalidMappingSegment   = "INVALID_MAPPING_SEGMENT"
	CodeMappingNegativeValue    = "MAPPING_NEGATIVE_VALUE"
	CodeMappingExceeds32Bits    = "MAPPING_VALUE_EXCEEDS_32_BITS"
	CodeSourceIndexOutOfBounds  = "MAPPING_SOURCE_INDEX_OUT_OF_BOUNDS"
	CodeNameIndexOutOfBounds    = "MAPPING_NAME_INDEX_OUT_OF_BOUNDS"
)

// Diagnostic is a single validation finding.
type Diagnostic struct {
	Code    string
	Message string
}

// ValidationResult is the outcome of validating a mappings string.
type ValidationResult struct {
	Valid       bool
	Diagnostics []Diagnostic
}

const maxInt32 = 1<<31 - 1
const minInt32 = -(1 << 31)

// ValidateMappings checks a Source Map v3 `mappings` string against the
// ECMA-426 rules: field-count per segment, VLQ well-formedness, 32-bit
// signed overflow, non-negative accumulators, and source/name index bounds.
//
// Validation never mutates its inputs and is fully deterministic: identical
// inputs always produce identical diagnostics in the same order.
func ValidateMappings(mappings string, sourcesLen, namesLen int) ValidationResult {
	var diags []Diagnostic
	add := func(code, format string, args ...any) {
		diags = append(diags, Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if mappings == "" {
		return ValidationResult{Valid: true}
	}

	var genLine int
	var sourceIndex, origLine, origCol, nameIndex int64

	lineStart := 0
	for lineStart <= len(mappings) {
		lineEnd := indexByte(mappings, ';', lineStart)
		var line string
		if lineEnd < 0 {
			line = mappings[lineStart:]
		} else {
			line = mappings[lineStart:lineEnd]
		}

		var genCol int64
		segStart := 0
		segIndex := 0
		for segStart <= len(line) {
			segEnd := indexByte(line, ',', segStart)
			var seg string
			if segEnd < 0 {
				seg = line[segStart:]
			} else {
				seg = line[segStart:segEnd]
			}

			if seg == "" {
				// Empty segment: only legal as the sole, complete absence of
				// segments on an otherwise-empty line (no commas at all).
				if !(segStart == 0 && segEnd < 0 && line == "") {
					add(CodeInvalidMappingSegment, "line %d segment %d: empty segment (leading/trailing/consecutive comma)", genLine, segIndex)
				}
			} else {
				fields, ok := decodeSegmentFields(seg)
				if !ok {
					add(CodeInvalidVLQ, "line %d segment %d: invalid VLQ digit", genLine, segIndex)
				} else if len(fields) != 1 && len(fields) != 4 && len(fields) != 5 {
					add(CodeInvalidMappingSegment, "line %d segment %d: segment has %d fields, expected 1, 4, or 5", genLine, segIndex, len(fields))
				} else {
					checkField(&genCol, fields[0], add, genLine, segIndex)
					if len(fields) >= 4 {
						checkField(&sourceIndex, fields[1], add, genLine, segIndex)
						if sourceIndex >= 0 && sourceIndex >= int64(sourcesLen) {
							add(CodeSourceIndexOutOfBounds, "line %d segment %d: source index %d out of bounds (sources length %d)", genLine, segIndex, sourceIndex, sourcesLen)
						}
						checkField(&origLine, fields[2], add, genLine, segIndex)
						checkField(&origCol, fields[3], add, genLine, segIndex)
					}
					if len(fields) == 5 {
						checkField(&nameIndex, fields[4], add, genLine, segIndex)
						if nameIndex >= 0 && nameIndex >= int64(namesLen) {
							add(CodeNameIndexOutOfBounds, "line %d segment %d: name index %d out of bounds (names length %d)", genLine, segIndex, nameIndex, namesLen)
						}
					}
				}
			}

			if segEnd < 0 {
				break
			}
			segStart = segEnd + 1
			segIndex++
		}

		if lineEnd < 0 {
			break
		}
		lineStart = lineEnd + 1
		genLine++
	}

	return ValidationResult{Valid: len(diags) == 0, Diagnostics: diags}
}

// decodeSegmentFields decodes every VLQ value in a segment in order. Returns
// ok=false if any digit in the segment is malformed.
func decodeSegmentFields(seg string) ([]int64, bool) {
	var fields []int64
	pos := 0
	for pos < len(seg) {
		v, next, err := decodeVLQSegment(seg, pos)
		if err != nil {
			return nil, false
		}
		fields = append(fields, v)
		pos = next
	}
	return fields, true
}

// checkField validates and applies one decoded delta to its accumulator,
// enforcing the 32-bit-signed-value and non-negative-result rules. Bounds
// checks against sources.length / names.length are the caller's
// responsibility since they depend on which field this is.
func checkField(acc *int64, delta int64, add func(code, format string, args ...any), line, seg int) {
	if delta > maxInt32 || delta < minInt32 {
		add(CodeMappingExceeds32Bits, "line %d segment %d: value %d exceeds 32-bit signed range", line, seg, delta)
	}
	*acc += delta
	if *acc < 0 {
		add(CodeMappingNegativeValue, "line %d segment %d: accumulator went negative (%d)", line, seg, *acc)
	}
}

func indexByte(s string, b byte, from int) int {
	if from > len(s) {
		return -1
	}
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

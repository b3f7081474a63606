// Package sourcemap implements ECMA-426 (Source Map v3) discovery,
// validation, and source extraction.
package sourcemap

import "fmt"

// base64Digits maps a base64 VLQ character to its 6-bit value, or -1 if the
// character is not part of the base64-VLQ alphabet.
var base64Digits = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}()

const (
	vlqContinuationBit = 0x20
	vlqValueMask       = 0x1f
	vlqShift           = 5
)

// decodeVLQSegment decodes one base64-VLQ encoded signed integer starting at
// s[pos]. It returns the decoded value, the position just past the digits
// consumed, and an error if the digit sequence is malformed (non-base64
// character where a digit was expected, or missing continuation digit at
// end of string).
func decodeVLQSegment(s string, pos int) (value int64, next int, err error) {
	shift := uint(0)
	var result int64
	start := pos
	for {
		if pos >= len(s) {
			return 0, pos, fmt.Errorf("truncated VLQ value starting at offset %d", start)
		}
		c := s[pos]
		digit := base64Digits[c]
		if digit < 0 {
			return 0, pos, fmt.Errorf("invalid VLQ character %q at offset %d", c, pos)
		}
		pos++
		result |= int64(digit&vlqValueMask) << shift
		shift += vlqShift
		if digit&vlqContinuationBit == 0 {
			break
		}
		if shift > 64 {
			return 0, pos, fmt.Errorf("VLQ value too long starting at offset %d", start)
		}
	}

	negative := result&1 != 0
	result >>= 1
	if negative {
		result = -result
	}
	return result, pos, nil
}

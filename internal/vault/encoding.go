package vault

import "unicode/utf8"

// DecodeText returns data as a string. Bytes that are not valid UTF-8 are
// reinterpreted as Latin-1 (one rune per byte) so a stray legacy file still
// yields analyzable text. The second result is false when the fallback was
// taken, which callers record as an encoding warning.
func DecodeText(data []byte) (string, bool) {
	if utf8.Valid(data) {
		return string(data), true
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), false
}

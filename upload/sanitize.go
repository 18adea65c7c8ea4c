package upload

import "strings"

// SanitizeFilename reduces a client-supplied name to something safe to log,
// display or echo back. Everything up to the last '/' or '\' is dropped, then
// each rune outside [A-Za-z0-9._-] becomes '_'. The result has exactly as
// many runes as the final segment.
func SanitizeFilename(raw string) string {
	if i := strings.LastIndexAny(raw, `/\`); i >= 0 {
		raw = raw[i+1:]
	}

	return strings.Map(func(r rune) rune {
		if isSafeRune(r) {
			return r
		}
		return '_'
	}, raw)
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	default:
		return false
	}
}

// Package text holds rune-aware string helpers shared by adapters that
// enforce character limits on mixed CJK and Latin text.
package text

import "strings"

// CountRunes returns the number of Unicode code points in s.
func CountRunes(s string) int {
	return len([]rune(s))
}

// Truncate shortens s to at most limit runes, replacing the tail with
// suffix when it cuts. The suffix counts toward the limit.
func Truncate(s string, limit int, suffix string) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	keep := limit - CountRunes(suffix)
	if keep <= 0 {
		return string(runes[:limit])
	}
	return strings.TrimRightFunc(string(runes[:keep]), isSpace) + suffix
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

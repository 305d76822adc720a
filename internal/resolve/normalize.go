package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares on-screen text for matching: NFC so composed Hangul
// and accented Latin survive, detached combining marks stripped, lowered,
// control characters and repeated whitespace collapsed.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "：", ":")
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) {
			continue
		}
		if unicode.IsControl(r) || (r >= 0x7f && r <= 0x9f) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

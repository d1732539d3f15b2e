// Package script holds the presentation's immutable input data: the ordered
// transcript list and the sliding-window chunk index built from it.
package script

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize puts s into the canonical form used uniformly across transcripts,
// chunks, and ASR output before matching: lowercased, Unicode NFC, punctuation
// stripped, hyphens turned into spaces, and whitespace collapsed.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = norm.NFC.String(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastWasSpace = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped entirely, not replaced with a space
		default:
			b.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// Words splits an already-normalized string into its whitespace-separated
// word tokens.
func Words(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

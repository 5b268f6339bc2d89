// Package evaluation applies the content-quality rule set to quiz items.
package evaluation

import (
	"strings"
	"unicode"
)

// NormalizeWhitespace trims the text and collapses every run of whitespace
// (including non-breaking and zero-width spaces) into a single ASCII space.
func NormalizeWhitespace(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) || r == '\u200b' {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// NormalizeKey is the comparison form used for duplicate detection:
// whitespace-normalized and case-folded.
func NormalizeKey(text string) string {
	return strings.ToLower(NormalizeWhitespace(text))
}

// NormalizeOptions returns whitespace-normalized options and whether any changed.
func NormalizeOptions(options []string) ([]string, bool) {
	out := make([]string, len(options))
	changed := false
	for i, opt := range options {
		out[i] = NormalizeWhitespace(opt)
		if out[i] != opt {
			changed = true
		}
	}
	return out, changed
}

func runeLen(s string) int {
	return len([]rune(s))
}

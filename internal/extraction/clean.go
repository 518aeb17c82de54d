package extraction

import (
	"strings"
	"unicode"
)

// MaxPromptChars caps the resume text sent to the extraction model.
const MaxPromptChars = 15000

// CleanText replaces non-printable runes with spaces and collapses all
// whitespace runs into a single space.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) || r == unicode.ReplacementChar {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

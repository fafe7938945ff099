// AngelaMos | 2026
// tags.go

package post

import (
	"regexp"
	"strings"
	"unicode"
)

var hashtagPattern = regexp.MustCompile(`^#[\p{L}\p{N}]+$`)

// NormalizeTags returns tags as "#word" hashtags. Well-formed tags pass
// through untouched; others get a leading '#' and lose whitespace and
// punctuation, keeping their letter case. Empties and exact duplicates
// are dropped. The result is never nil.
func NormalizeTags(tags []string) Tags {
	out := make(Tags, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, raw := range tags {
		tag := normalizeTag(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

func normalizeTag(raw string) string {
	raw = strings.TrimSpace(raw)
	if hashtagPattern.MatchString(raw) {
		return raw
	}

	var b strings.Builder
	b.WriteByte('#')
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	if b.Len() == 1 {
		return ""
	}
	return b.String()
}

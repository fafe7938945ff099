// AngelaMos | 2026
// title.go

package post

import (
	"regexp"
	"strings"
)

const UntitledTitle = "Untitled Blog Post"

var blankLine = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// ExtractTitle derives a post title from generated markdown: the segment
// before the first blank line, with heading markers removed.
func ExtractTitle(content string) string {
	first := blankLine.Split(strings.TrimSpace(content), 2)[0]

	if title := SanitizeTitle(first); title != "" {
		return title
	}
	return UntitledTitle
}

// SanitizeTitle strips leading '#' markers and surrounding whitespace and
// folds a multi-line segment onto one line.
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimLeft(title, "#")
	return strings.Join(strings.Fields(title), " ")
}

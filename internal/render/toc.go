package render

import (
	"regexp"
	"strings"

	"github.com/jongmin-chung/jamie/internal/domain/content"
)

var (
	atxHeading    = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	closingHashes = regexp.MustCompile(`\s+#+\s*$`)
)

// ExtractHeadings builds a table of contents from ATX headings outside fenced
// code blocks. Slugs match the anchors Render assigns.
func ExtractHeadings(markdown string) []content.Heading {
	if markdown == "" {
		return nil
	}
	ids := newHeadingIDs()
	var out []content.Heading
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := atxHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(closingHashes.ReplaceAllString(m[2], ""))
		out = append(out, content.Heading{
			Level: len(m[1]),
			Text:  text,
			Slug:  ids.next(text),
		})
	}
	return out
}

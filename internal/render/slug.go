package render

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
)

func isHangulSyllable(r rune) bool {
	return r >= '가' && r <= '힣'
}

// HeadingSlug lower-cases text, keeps a-z, 0-9, Hangul syllables, spaces and
// hyphens, turns whitespace runs into single hyphens and trims hyphens.
func HeadingSlug(text string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', isHangulSyllable(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

// headingIDs hands out unique anchors within one document. Repeats get
// -1, -2, ... suffixes; an empty slug becomes "heading".
type headingIDs struct {
	used map[string]int
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: make(map[string]int)}
}

func (s *headingIDs) next(text string) string {
	slug := HeadingSlug(text)
	if slug == "" {
		slug = "heading"
	}
	n, seen := s.used[slug]
	if !seen {
		s.used[slug] = 0
		return slug
	}
	for {
		n++
		candidate := slug + "-" + strconv.Itoa(n)
		if _, taken := s.used[candidate]; !taken {
			s.used[slug] = n
			s.used[candidate] = 0
			return candidate
		}
	}
}

// Generate implements parser.IDs.
func (s *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	return []byte(s.next(string(value)))
}

// Put implements parser.IDs; explicit ids reserve their slot.
func (s *headingIDs) Put(value []byte) {
	if _, ok := s.used[string(value)]; !ok {
		s.used[string(value)] = 0
	}
}

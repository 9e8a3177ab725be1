package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Keeps ASCII word characters, whitespace, Hangul jamo and syllables.
var disallowed = regexp.MustCompile(`[^\w\sㄱ-ㅎㅏ-ㅣ가-힣]+`)

// Normalize composes Hangul (NFC), lower-cases, replaces every other
// character with a space and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = cases.Lower(language.Und).String(s)
	s = disallowed.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits normalized text on whitespace. No stemming.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// Highlight wraps every case-insensitive occurrence of each query term
// longer than one character in <mark></mark>. Terms are applied one after
// another, so overlapping terms can nest marks.
func Highlight(text, query string) string {
	if strings.TrimSpace(query) == "" {
		return text
	}
	out := text
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(term)) < 2 {
			continue
		}
		re, err := regexp.Compile(`(?i)(` + regexp.QuoteMeta(term) + `)`)
		if err != nil {
			continue
		}
		out = re.ReplaceAllString(out, "<mark>${1}</mark>")
	}
	return out
}
